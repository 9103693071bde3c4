package mcts

// SetTemperatureOverride pins the temperature PlayBestMove uses regardless
// of moveNumber/TemperaturePlies, mirroring BatchMCTS::set_temperature's
// runtime override of the ply-based schedule. Pass a negative value to
// clear the override and return to the configured ply-based schedule.
func (t *Tree) SetTemperatureOverride(temp float32) {
	if temp < 0 {
		t.hasTempOverride = false
		return
	}
	t.hasTempOverride = true
	t.tempOverride = temp
}
