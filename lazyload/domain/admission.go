package domain

// SlotPool representa a capacidade finita de cargas simultâneas (AdmissionCounter).
//
// TryAcquire nunca bloqueia: se não há vaga retorna ok=false e o chamador adia.
// Ao adquirir, retorna uma função de release que deve ser chamada exatamente uma vez.
type SlotPool interface {
	TryAcquire() (release func(), ok bool)
	InFlight() int
	Cap() int
}
