package domain

// Playbook es el texto estático de estrategias que recibe el proveedor de IA.
// El core no interpreta las estrategias: solo valida que las citas existan.
type Playbook struct {
	Text       string
	Strategies int // número de estrategias numeradas en el texto
}

// ValidCitation indica si n es un número de estrategia del playbook.
func (p Playbook) ValidCitation(n int) bool {
	return n >= 1 && n <= p.Strategies
}
