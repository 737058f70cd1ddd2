package telemetry

import (
	"context"
	"sync"
	"testing"
)

var setupTestEnvironments = map[string]bool{}
var setupTestLock sync.Mutex

// SetupForTesting sets up telemetry in a testing environment, ensuring that it isn't
// set up more than once per service name.
func SetupForTesting(t testing.TB, serviceName string) func() {
	setupTestLock.Lock()
	defer setupTestLock.Unlock()

	if setupTestEnvironments[serviceName] {
		return func() {}
	}
	setupTestEnvironments[serviceName] = true

	InitSlog(true)
	tel, err := SetupFromEnv(context.Background(), serviceName)
	if err != nil {
		t.Fatal(err)
	}
	return func() {
		err := tel.Shutdown(context.Background())
		if err != nil {
			t.Fatal(err)
		}
	}
}
