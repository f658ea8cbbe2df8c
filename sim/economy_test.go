package sim

import (
	"testing"
)

func TestEconomyAssignsLeastCrowdedFarm(t *testing.T) {
	st := newTestState(t)
	eco := NewEconomy(st, 1)

	a := spawnAt(t, st, JobFarmer, FactionVillager, 500, 500)
	b := spawnAt(t, st, JobFarmer, FactionVillager, 500, 500)
	eco.AssignWork(a)
	eco.AssignWork(b)

	if st.FarmIndex[a] < 0 || st.FarmIndex[b] < 0 {
		t.Fatal("farmers must be bound to farms")
	}
	if st.FarmIndex[a] == st.FarmIndex[b] {
		t.Error("second farmer should land on a different (less crowded) farm")
	}
	if st.WorkX[a] != eco.Farms[st.FarmIndex[a]].X {
		t.Error("workplace must match the assigned farm")
	}
}

func TestFarmGrowthAndHarvest(t *testing.T) {
	st := newTestState(t)
	eco := NewEconomy(st, 1)

	farmer := spawnAt(t, st, JobFarmer, FactionVillager, 500, 500)
	eco.AssignWork(farmer)
	st.Activity[farmer] = Farming

	fi := st.FarmIndex[farmer]
	eco.Farms[fi].Growth = 1.0

	before := st.Stock[FactionVillager]
	eco.Update(testDT)

	if st.Stock[FactionVillager] != before+st.Cfg.Economy.HarvestYield {
		t.Errorf("expected harvest deposit, stock %f", st.Stock[FactionVillager])
	}
	if eco.Farms[fi].Growth != 0 {
		t.Error("harvest must reset growth")
	}
}

func TestFarmGrowthAdvances(t *testing.T) {
	st := newTestState(t)
	eco := NewEconomy(st, 1)

	g0 := eco.Farms[0].Growth
	for i := 0; i < 60; i++ {
		eco.Update(testDT)
	}
	if eco.Farms[0].Growth <= g0 {
		t.Error("farm growth should advance over time")
	}
}

func TestSpawnersTopUpPopulation(t *testing.T) {
	st := newTestState(t)
	eco := NewEconomy(st, 1)

	// No farmers alive: the farmer home should enqueue a spawn once its
	// timer elapses (it starts at zero).
	eco.Update(testDT)
	if st.PendingSpawns() == 0 {
		t.Fatal("expected spawner to enqueue a spawn")
	}

	slots, err := st.DrainSpawns()
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	var sawFarmer bool
	for _, slot := range slots {
		if st.Job[slot] == JobFarmer {
			sawFarmer = true
		}
	}
	if !sawFarmer {
		t.Error("expected a farmer among spawner output")
	}
}

func TestSpawnerRespectsTimer(t *testing.T) {
	st := newTestState(t)
	eco := NewEconomy(st, 1)

	eco.Update(testDT)
	first := st.PendingSpawns()
	eco.Update(testDT)
	if st.PendingSpawns() != first {
		t.Error("spawner must wait out its respawn timer between spawns")
	}
}
