package traits

import "testing"

func TestDamageMultiplier(t *testing.T) {
	tests := []struct {
		name       string
		trait      Trait
		healthFrac float32
		want       float32
	}{
		{"plain", 0, 1.0, 1.0},
		{"strong", Strong, 1.0, 1.25},
		{"berserker healthy", Berserker, 0.8, 1.0},
		{"berserker wounded", Berserker, 0.4, 1.5},
		{"strong berserker wounded", Strong | Berserker, 0.4, 1.875},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DamageMultiplier(tt.trait, tt.healthFrac); got != tt.want {
				t.Errorf("DamageMultiplier(%v, %v) = %v, want %v", tt.trait, tt.healthFrac, got, tt.want)
			}
		})
	}
}

func TestCooldownMultiplier(t *testing.T) {
	if got := CooldownMultiplier(Efficient); got != 0.75 {
		t.Errorf("Efficient = %v, want 0.75", got)
	}
	if got := CooldownMultiplier(Lazy); got != 1.2 {
		t.Errorf("Lazy = %v, want 1.2", got)
	}
	if got := CooldownMultiplier(0); got != 1.0 {
		t.Errorf("plain = %v, want 1.0", got)
	}
}

func TestFleeThreshold(t *testing.T) {
	if got := FleeThreshold(Brave, 0.33); got != 0 {
		t.Errorf("Brave = %v, want 0 (never flees)", got)
	}
	if got := FleeThreshold(Coward, 0.33); got < 0.52 || got > 0.54 {
		t.Errorf("Coward = %v, want 0.53", got)
	}
	if got := FleeThreshold(0, 0.33); got != 0.33 {
		t.Errorf("plain = %v, want 0.33", got)
	}
}

func TestSpeedMultiplier(t *testing.T) {
	if got := SpeedMultiplier(Swift); got != 1.25 {
		t.Errorf("Swift = %v, want 1.25", got)
	}
	if got := SpeedMultiplier(Strong); got != 1.0 {
		t.Errorf("non-swift = %v, want 1.0", got)
	}
}

func TestAllCoversWeights(t *testing.T) {
	seen := make(map[Trait]bool, len(All))
	for _, tr := range All {
		seen[tr] = true
	}
	for tr := range TraitWeights {
		if !seen[tr] {
			t.Errorf("trait %v has a weight but is missing from All", tr)
		}
	}
}
