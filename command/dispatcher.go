package command

// Dispatcher exposes the four command scopes a Bus offers its caller.
type Dispatcher struct {
	Local   *Scope
	Machine *Scope
	Cluster *Scope
	Network *Scope
}
