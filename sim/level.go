package sim

// xpToNext is the XP required to advance from the given level.
func xpToNext(level int32) int32 {
	return level * 100
}

// GrantXP adds XP to a slot and applies any level-ups. Each level adds 10%
// max health (healing the gained amount) and scales damage via LevelDamage.
func (st *State) GrantXP(slot int32, amount int32) {
	if !st.Alive(slot) {
		return
	}
	st.XP[slot] += amount
	for st.XP[slot] >= xpToNext(st.Level[slot]) {
		st.XP[slot] -= xpToNext(st.Level[slot])
		st.Level[slot]++
		gain := JobTemplates[st.Job[slot]].MaxHealth * 0.1
		st.MaxHealth[slot] += gain
		st.Health[slot] += gain
	}
}

// LevelDamage returns the damage multiplier contributed by a slot's level.
func LevelDamage(level int32) float32 {
	return 1 + 0.05*float32(level-1)
}
