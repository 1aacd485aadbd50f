package config

import "sync"

// resetForTest clears the singleton so Initialize can run again.
func resetForTest() {
	configMutex.Lock()
	defer configMutex.Unlock()
	globalConfig = nil
	globalPath = ""
	initOnce = sync.Once{}
}
