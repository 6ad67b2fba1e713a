package orm

// Event names dispatched over a model's lifecycle (spec §4.4).
const (
	EventBooting   = "booting"
	EventBooted    = "booted"
	EventHydrating = "hydrating"
	EventHydrated  = "hydrated"
	EventCreating  = "creating"
	EventCreated   = "created"
	EventUpdating  = "updating"
	EventUpdated   = "updated"
	EventSaving    = "saving"
	EventSaved     = "saved"
	EventDeleting  = "deleting"
	EventDeleted   = "deleted"
)

// Observer registers one method per event name it cares about; any method
// left nil is simply not invoked for that event.
type Observer struct {
	Booting   func(Model)
	Booted    func(Model)
	Hydrating func(Model)
	Hydrated  func(Model)
	Creating  func(Model) bool
	Created   func(Model)
	Updating  func(Model) bool
	Updated   func(Model)
	Saving    func(Model) bool
	Saved     func(Model)
	Deleting  func(Model) bool
	Deleted   func(Model)
}

// fireCancelable runs every *ing observer for event on m; the operation is
// canceled (returns false) the moment one observer returns false, matching
// spec §4.4's "returning false from any *ing handler cancels the operation".
func fireCancelable(meta *Metadata, m Model, pick func(Observer) func(Model) bool) bool {
	for _, obs := range meta.Observers {
		if fn := pick(obs); fn != nil {
			if !fn(m) {
				return false
			}
		}
	}
	return true
}

func fireVoid(meta *Metadata, m Model, pick func(Observer) func(Model)) {
	for _, obs := range meta.Observers {
		if fn := pick(obs); fn != nil {
			fn(m)
		}
	}
}

// Observe registers obs on meta.
func (meta *Metadata) Observe(obs Observer) {
	meta.Observers = append(meta.Observers, obs)
}

func (meta *Metadata) boot(m Model) {
	if meta.booted {
		return
	}
	fireVoid(meta, m, func(o Observer) func(Model) { return o.Booting })
	meta.booted = true
	fireVoid(meta, m, func(o Observer) func(Model) { return o.Booted })
}
