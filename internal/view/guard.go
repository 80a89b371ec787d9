package view

// Guard tracks items with an outstanding mutating request. At most one
// request per id is in flight; a second trigger is a silent no-op.
//
// Guard is not safe for concurrent use. It belongs to the UI loop that owns
// the screen, the same way the screen's other state does.
type Guard struct {
	inFlight map[string]struct{}
}

func NewGuard() *Guard {
	return &Guard{inFlight: map[string]struct{}{}}
}

// Enter claims id. It returns false if id is already claimed.
func (g *Guard) Enter(id string) bool {
	if _, busy := g.inFlight[id]; busy {
		return false
	}
	g.inFlight[id] = struct{}{}
	return true
}

func (g *Guard) Leave(id string) {
	delete(g.inFlight, id)
}

func (g *Guard) Busy(id string) bool {
	_, busy := g.inFlight[id]
	return busy
}

func (g *Guard) Len() int { return len(g.inFlight) }

// Do runs action while holding id. ran is false when id was already held.
// The claim is released whatever action does, panics included.
func (g *Guard) Do(id string, action func() error) (ran bool, err error) {
	if !g.Enter(id) {
		return false, nil
	}
	defer g.Leave(id)
	return true, action()
}
