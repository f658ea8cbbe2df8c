package sim

// JobID is the closed job enumeration. Per-job behavior is resolved by table
// lookup on the integer tag.
type JobID uint8

const (
	JobFarmer JobID = iota
	JobGuard
	JobArcher
	JobRaider
	numJobs
)

var jobNames = [...]string{"Farmer", "Guard", "Archer", "Raider"}

// String returns the job name.
func (j JobID) String() string {
	if int(j) < len(jobNames) {
		return jobNames[j]
	}
	return "Unknown"
}

// SpriteRef addresses one sprite in an atlas.
type SpriteRef struct {
	Col, Row, Atlas float32
}

// JobTemplate seeds every per-slot array when a slot is acquired for a job.
type JobTemplate struct {
	Speed       float32
	MaxHealth   float32
	Damage      float32
	AttackRange float32
	Ranged      bool
	Energy      float32

	Body SpriteRef
	Tint [4]float32

	// Equipment strip, LayerWeapon..LayerStatus. Col < 0 hides the layer.
	Equipment [EquipLayers]SpriteRef
}

var hiddenLayer = SpriteRef{Col: -1, Row: 0, Atlas: 0}

// JobTemplates is indexed by JobID.
var JobTemplates = [numJobs]JobTemplate{
	JobFarmer: {
		Speed:       46,
		MaxHealth:   60,
		Damage:      4,
		AttackRange: 14,
		Energy:      1.0,
		Body:        SpriteRef{Col: 0, Row: 2, Atlas: 0},
		Tint:        [4]float32{0.85, 0.95, 0.75, 1},
		Equipment: [EquipLayers]SpriteRef{
			LayerWeapon:  {Col: 3, Row: 6, Atlas: 1}, // hoe
			LayerShield:  hiddenLayer,
			LayerHelmet:  {Col: 1, Row: 7, Atlas: 1}, // straw hat
			LayerCloak:   hiddenLayer,
			LayerCarried: hiddenLayer,
			LayerStatus:  hiddenLayer,
		},
	},
	JobGuard: {
		Speed:       52,
		MaxHealth:   140,
		Damage:      12,
		AttackRange: 18,
		Energy:      1.0,
		Body:        SpriteRef{Col: 1, Row: 2, Atlas: 0},
		Tint:        [4]float32{0.75, 0.8, 1, 1},
		Equipment: [EquipLayers]SpriteRef{
			LayerWeapon:  {Col: 0, Row: 6, Atlas: 1}, // sword
			LayerShield:  {Col: 2, Row: 6, Atlas: 1},
			LayerHelmet:  {Col: 0, Row: 7, Atlas: 1},
			LayerCloak:   hiddenLayer,
			LayerCarried: hiddenLayer,
			LayerStatus:  hiddenLayer,
		},
	},
	JobArcher: {
		Speed:       55,
		MaxHealth:   90,
		Damage:      10,
		AttackRange: 150,
		Ranged:      true,
		Energy:      1.0,
		Body:        SpriteRef{Col: 2, Row: 2, Atlas: 0},
		Tint:        [4]float32{0.8, 1, 0.8, 1},
		Equipment: [EquipLayers]SpriteRef{
			LayerWeapon:  {Col: 1, Row: 6, Atlas: 1}, // bow
			LayerShield:  hiddenLayer,
			LayerHelmet:  {Col: 2, Row: 7, Atlas: 1},
			LayerCloak:   {Col: 4, Row: 7, Atlas: 1},
			LayerCarried: hiddenLayer,
			LayerStatus:  hiddenLayer,
		},
	},
	JobRaider: {
		Speed:       58,
		MaxHealth:   110,
		Damage:      14,
		AttackRange: 18,
		Energy:      1.0,
		Body:        SpriteRef{Col: 3, Row: 2, Atlas: 0},
		Tint:        [4]float32{1, 0.7, 0.65, 1},
		Equipment: [EquipLayers]SpriteRef{
			LayerWeapon:  {Col: 4, Row: 6, Atlas: 1}, // axe
			LayerShield:  hiddenLayer,
			LayerHelmet:  {Col: 3, Row: 7, Atlas: 1},
			LayerCloak:   hiddenLayer,
			LayerCarried: hiddenLayer,
			LayerStatus:  hiddenLayer,
		},
	},
}

// AttackRange returns a slot's effective attack range.
func (st *State) AttackRange(slot int32) float32 {
	r := JobTemplates[st.Job[slot]].AttackRange
	if r <= 0 {
		return float32(st.Cfg.Combat.AttackRangeDefault)
	}
	return r
}
