// Package traits defines NPC personality traits and their combat modifiers.
package traits

// Trait defines NPC behavior modifiers.
type Trait uint32

const (
	// Combat traits
	Strong    Trait = 1 << iota // 1.25x melee/ranged damage
	Berserker                   // +50% damage below half health
	Efficient                   // 0.75x attack cooldown
	Lazy                        // 1.2x attack cooldown

	// Morale traits
	Brave  // Never flees
	Coward // Flees earlier (+0.2 threshold)

	// Physical traits
	Swift // 1.25x movement speed
)

// Has checks if a trait set contains a trait.
func (t Trait) Has(other Trait) bool {
	return t&other != 0
}

// Add adds a trait to the set.
func (t Trait) Add(other Trait) Trait {
	return t | other
}

// Remove removes a trait from the set.
func (t Trait) Remove(other Trait) Trait {
	return t &^ other
}

// All lists every trait in a fixed order so weighted rolls stay
// deterministic for a given RNG seed.
var All = []Trait{Strong, Berserker, Efficient, Lazy, Brave, Coward, Swift}

// TraitWeights for random selection at spawn (higher = more common).
var TraitWeights = map[Trait]float32{
	Strong:    0.08,
	Berserker: 0.04,
	Efficient: 0.08,
	Lazy:      0.10,
	Brave:     0.06,
	Coward:    0.06,
	Swift:     0.08,
}

// DamageMultiplier returns the melee/ranged damage scale for a trait set.
// healthFrac is current health divided by max health.
func DamageMultiplier(t Trait, healthFrac float32) float32 {
	m := float32(1.0)
	if t.Has(Strong) {
		m *= 1.25
	}
	if t.Has(Berserker) && healthFrac < 0.5 {
		m *= 1.5
	}
	return m
}

// CooldownMultiplier returns the attack cooldown scale for a trait set.
func CooldownMultiplier(t Trait) float32 {
	m := float32(1.0)
	if t.Has(Efficient) {
		m *= 0.75
	}
	if t.Has(Lazy) {
		m *= 1.2
	}
	return m
}

// SpeedMultiplier returns the movement speed scale for a trait set.
func SpeedMultiplier(t Trait) float32 {
	if t.Has(Swift) {
		return 1.25
	}
	return 1.0
}

// FleeThreshold adjusts a base flee threshold (fraction of max health) for a
// trait set. Brave NPCs never flee; Coward NPCs flee earlier.
func FleeThreshold(t Trait, base float32) float32 {
	if t.Has(Brave) {
		return 0
	}
	if t.Has(Coward) {
		return base + 0.2
	}
	return base
}

// TraitNames returns human-readable names for traits.
func TraitNames(t Trait) []string {
	var names []string
	if t.Has(Strong) {
		names = append(names, "Strong")
	}
	if t.Has(Berserker) {
		names = append(names, "Berserker")
	}
	if t.Has(Efficient) {
		names = append(names, "Efficient")
	}
	if t.Has(Lazy) {
		names = append(names, "Lazy")
	}
	if t.Has(Brave) {
		names = append(names, "Brave")
	}
	if t.Has(Coward) {
		names = append(names, "Coward")
	}
	if t.Has(Swift) {
		names = append(names, "Swift")
	}
	return names
}
