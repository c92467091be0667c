package cmd

import (
	"bytes"
	"scene-worker/config"
	"strings"
	"testing"
)

func TestRoot_Commands(t *testing.T) {
	root := Root(&config.Config{})
	for _, name := range []string{"server", "run", "subtitles", "trigger"} {
		if c, _, err := root.Find([]string{name}); err != nil || c.Name() != name {
			t.Errorf("command %q not registered: %v", name, err)
		}
	}
}

func TestTrigger_RequiresBroker(t *testing.T) {
	root := Root(&config.Config{})
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"trigger", "--reason", "test"})

	err := root.Execute()
	if err == nil || !strings.Contains(err.Error(), "rabbitmq_host") {
		t.Fatalf("expected missing broker error, got %v", err)
	}
}
