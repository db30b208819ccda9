package referencedata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRecords(t *testing.T) {
	text := "\ufeffcard-digitalprofile-name,card-digitalprofile-position,line-clamp-2\r\n" +
		"Carpigiani,Pad. A5 Stand 101,A5 Gelato\r\n" +
		"\r\n" +
		",,\n" +
		"BINDI S.p.A.,Pad. B1 Stand 045,\"B1 Pasticceria\ne dessert surgelati\"\n" +
		"Pavoni\n"

	header, records, err := ParseRecords(text)
	require.NoError(t, err)

	assert.Equal(t, []string{"card-digitalprofile-name", "card-digitalprofile-position", "line-clamp-2"}, header.Fields)
	assert.Equal(t, "card-digitalprofile-name,card-digitalprofile-position,line-clamp-2", header.Raw)

	require.Len(t, records, 3)
	assert.Equal(t, "Carpigiani,Pad. A5 Stand 101,A5 Gelato", records[0].Raw)

	assert.Equal(t, "BINDI S.p.A.", records[1].Fields[0])
	assert.Equal(t, "B1 Pasticceria\ne dessert surgelati", records[1].Fields[2])
	assert.Equal(t, "BINDI S.p.A.,Pad. B1 Stand 045,\"B1 Pasticceria\ne dessert surgelati\"", records[1].Raw)

	assert.Equal(t, []string{"Pavoni"}, records[2].Fields)
}

func TestParseRecordsEmpty(t *testing.T) {
	header, records, err := ParseRecords("  \n")
	assert.NoError(t, err)
	assert.Empty(t, header.Fields)
	assert.Empty(t, records)
}
