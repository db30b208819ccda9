package assistant

import (
	"fmt"
)

// GroundingPrompt renders the single text input sent to the provider:
// fixed instructions, both reference datasets and the user question.
type GroundingPrompt struct {
	wrapper string
}

func NewGroundingPrompt() *GroundingPrompt {
	return &GroundingPrompt{
		wrapper: `Tu sei l'assistente ufficiale del SIGEP. Rispondi in italiano.
Usa i seguenti dati per rispondere alle domande dell'utente.

DATI ESPOSITORI (Nome, Posizione, Categoria/Note):
%s

DATI EVENTI (Titolo, Data, Ora, Luogo):
%s

ISTRUZIONI:
- Rispondi in modo preciso basandoti SOLO sui dati forniti.
- Se l'utente cerca un'azienda, fornisci la posizione esatta.
- Gestisci errori di battitura nei nomi (es. "Bindi" invece di "BINDI S.p.A.").
- Se non trovi un espositore, offri di cercare per categoria se possibile o suggerisci nomi simili.
- Sii cordiale e professionale.

Domanda utente: %s
`,
	}
}

// Render is a pure function of its inputs
func (p *GroundingPrompt) Render(exhibitors, events, question string) string {
	return fmt.Sprintf(p.wrapper, exhibitors, events, question)
}
