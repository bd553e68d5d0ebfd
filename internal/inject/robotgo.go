package inject

import "github.com/go-vgo/robotgo"

// robotgoHooks is the production implementation of the OS primitives.
type robotgoHooks struct{}

func (robotgoHooks) TypeStr(text string) error {
	robotgo.TypeStr(text)
	return nil
}

func (robotgoHooks) KeyTap(key string, mods ...string) error {
	args := make([]interface{}, len(mods))
	for i, m := range mods {
		args[i] = m
	}
	return robotgo.KeyTap(key, args...)
}

func (robotgoHooks) ReadAll() (string, error) {
	return robotgo.ReadAll()
}

func (robotgoHooks) WriteAll(text string) error {
	return robotgo.WriteAll(text)
}
