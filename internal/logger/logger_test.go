package logger

import "testing"

func TestNew(t *testing.T) {
	for _, env := range []string{"local", "prod"} {
		l, err := New("hathordice", env)
		if err != nil {
			t.Fatalf("%s: %v", env, err)
		}
		l.Info("hello")
		_ = l.Sync()
	}
}
