package sim

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/pthm-cable/holdfast/traits"
)

// Save format: little-endian flat arrays behind a short header. The version
// integer is monotonic; any mismatch rejects the file.
const (
	saveMagic   uint32 = 0x48465331 // "HFS1"
	saveVersion uint32 = 1
)

// ErrSaveVersion is returned when a save file's version does not match.
var ErrSaveVersion = errors.New("sim: save version mismatch")

// saveHeader prefixes every save file.
type saveHeader struct {
	Magic   uint32
	Version uint32
	N       int32
	Max     int32
	ProjN   int32
	ProjMax int32
	GridW   int32
	GridH   int32
}

// Save writes the per-slot NPC arrays up to N (scan cooldowns, alert targets,
// logic-frame stamps and spawn positions excluded), the NPC free list,
// faction aggregates, and spawner and farm states. Projectile slots are not
// written; Load restores an empty projectile pool.
func Save(st *State, eco *Economy, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating save file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := writeState(w, st, eco); err != nil {
		return fmt.Errorf("writing save file: %w", err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing save file: %w", err)
	}
	return nil
}

// Load restores state saved by Save. The destination state must have been
// created with the same MAX capacities.
func Load(st *State, eco *Economy, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening save file: %w", err)
	}
	defer f.Close()
	if err := readState(bufio.NewReader(f), st, eco); err != nil {
		return fmt.Errorf("reading save file: %w", err)
	}
	return nil
}

func writeState(w io.Writer, st *State, eco *Economy) error {
	hdr := saveHeader{
		Magic:   saveMagic,
		Version: saveVersion,
		N:       st.NPCs.N(),
		Max:     st.NPCs.Max(),
		ProjN:   st.Proj.N(),
		ProjMax: st.Proj.Max(),
		GridW:   int32(st.Cfg.Grid.Width),
		GridH:   int32(st.Cfg.Grid.Height),
	}
	if err := binary.Write(w, binary.LittleEndian, hdr); err != nil {
		return err
	}

	n := int(hdr.N)
	sections := []any{
		st.Snap.PosX[:n], st.Snap.PosY[:n],
		st.GoalX[:n], st.GoalY[:n],
		st.Speed[:n], st.Health[:n], st.MaxHealth[:n],
		st.Faction[:n],
		st.HomeX[:n], st.HomeY[:n],
		st.WorkX[:n], st.WorkY[:n],
		st.Energy[:n], st.AttackCooldown[:n],
		st.Level[:n], st.XP[:n], st.FarmIndex[:n],
		st.Visual[:n*VisualStride], st.Equip[:n*EquipStride],
	}
	for _, s := range sections {
		if err := binary.Write(w, binary.LittleEndian, s); err != nil {
			return err
		}
	}

	// Small integer tags as bytes.
	tags := make([]uint8, n*2)
	for i := 0; i < n; i++ {
		tags[i*2] = uint8(st.Job[i])
		tags[i*2+1] = uint8(st.Activity[i])
	}
	if err := binary.Write(w, binary.LittleEndian, tags); err != nil {
		return err
	}
	trs := make([]uint32, n)
	for i := 0; i < n; i++ {
		trs[i] = uint32(st.Trait[i])
	}
	if err := binary.Write(w, binary.LittleEndian, trs); err != nil {
		return err
	}

	// Free list.
	free := st.NPCs.FreeList()
	if err := binary.Write(w, binary.LittleEndian, int32(len(free))); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, free); err != nil {
		return err
	}

	// Faction aggregates.
	if err := binary.Write(w, binary.LittleEndian, st.Stock); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, st.Upgrades); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, st.TownX); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, st.TownY); err != nil {
		return err
	}

	// Spawner and farm states.
	if err := binary.Write(w, binary.LittleEndian, int32(len(eco.Spawners))); err != nil {
		return err
	}
	for _, sp := range eco.Spawners {
		if err := binary.Write(w, binary.LittleEndian, sp); err != nil {
			return err
		}
	}
	if err := binary.Write(w, binary.LittleEndian, int32(len(eco.Farms))); err != nil {
		return err
	}
	for _, fm := range eco.Farms {
		if err := binary.Write(w, binary.LittleEndian, fm); err != nil {
			return err
		}
	}
	return nil
}

func readState(r io.Reader, st *State, eco *Economy) error {
	var hdr saveHeader
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return err
	}
	if hdr.Magic != saveMagic || hdr.Version != saveVersion {
		return ErrSaveVersion
	}
	if hdr.Max != st.NPCs.Max() || hdr.ProjMax != st.Proj.Max() {
		return fmt.Errorf("save capacity %d/%d does not match pool %d/%d",
			hdr.Max, hdr.ProjMax, st.NPCs.Max(), st.Proj.Max())
	}

	n := int(hdr.N)
	sections := []any{
		st.Snap.PosX[:n], st.Snap.PosY[:n],
		st.GoalX[:n], st.GoalY[:n],
		st.Speed[:n], st.Health[:n], st.MaxHealth[:n],
		st.Faction[:n],
		st.HomeX[:n], st.HomeY[:n],
		st.WorkX[:n], st.WorkY[:n],
		st.Energy[:n], st.AttackCooldown[:n],
		st.Level[:n], st.XP[:n], st.FarmIndex[:n],
		st.Visual[:n*VisualStride], st.Equip[:n*EquipStride],
	}
	for _, s := range sections {
		if err := binary.Read(r, binary.LittleEndian, s); err != nil {
			return err
		}
	}

	tags := make([]uint8, n*2)
	if err := binary.Read(r, binary.LittleEndian, tags); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		st.Job[i] = JobID(tags[i*2])
		st.Activity[i] = Activity(tags[i*2+1])
	}
	trs := make([]uint32, n)
	if err := binary.Read(r, binary.LittleEndian, trs); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		st.Trait[i] = traits.Trait(trs[i])
	}

	var freeLen int32
	if err := binary.Read(r, binary.LittleEndian, &freeLen); err != nil {
		return err
	}
	free := make([]int32, freeLen)
	if err := binary.Read(r, binary.LittleEndian, free); err != nil {
		return err
	}
	st.NPCs.Restore(hdr.N, free)
	st.Proj.Restore(0, nil)

	if err := binary.Read(r, binary.LittleEndian, &st.Stock); err != nil {
		return err
	}
	if err := binary.Read(r, binary.LittleEndian, &st.Upgrades); err != nil {
		return err
	}
	if err := binary.Read(r, binary.LittleEndian, &st.TownX); err != nil {
		return err
	}
	if err := binary.Read(r, binary.LittleEndian, &st.TownY); err != nil {
		return err
	}

	var spawnerLen int32
	if err := binary.Read(r, binary.LittleEndian, &spawnerLen); err != nil {
		return err
	}
	eco.Spawners = make([]Spawner, spawnerLen)
	for i := range eco.Spawners {
		if err := binary.Read(r, binary.LittleEndian, &eco.Spawners[i]); err != nil {
			return err
		}
	}
	var farmLen int32
	if err := binary.Read(r, binary.LittleEndian, &farmLen); err != nil {
		return err
	}
	eco.Farms = make([]Farm, farmLen)
	for i := range eco.Farms {
		if err := binary.Read(r, binary.LittleEndian, &eco.Farms[i]); err != nil {
			return err
		}
	}

	// Restored slots must be re-seeded on GPU: positions come from the saved
	// snapshot, live fields from the arrays above.
	st.DirtyNPCs = st.DirtyNPCs[:0]
	for i := int32(0); i < hdr.N; i++ {
		st.SpawnX[i] = st.Snap.PosX[i]
		st.SpawnY[i] = st.Snap.PosY[i]
		if st.Health[i] <= 0 {
			st.SpawnX[i] = TombstoneX
			st.SpawnY[i] = TombstoneX
		}
		st.MarkDirty(i)
	}
	return nil
}
