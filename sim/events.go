package sim

// DeathEvent reifies a kill for logging and telemetry. KillerSlot is the
// sentinel -1 when the death had no live attacker slot (scripted despawn, or
// a killer that had already died); KillerJob and KillerLevel are then zero.
type DeathEvent struct {
	Slot        int32
	VictimJob   JobID
	VictimLevel int32
	Faction     int32
	KillerSlot  int32
	KillerJob   JobID
	KillerLevel int32
	Frame       int32
}

// DrainDeathEvents returns and clears the events recorded this frame.
func (st *State) DrainDeathEvents() []DeathEvent {
	ev := st.deathEvents
	st.deathEvents = st.deathEvents[:0]
	return ev
}
