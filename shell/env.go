package shell

import (
	"os"
	"strings"
)

type Environment struct{}

func NewEnvironment() *Environment {
	return &Environment{}
}

func (this *Environment) LookupEnv(key string) (value string, set bool) {
	value, set = os.LookupEnv(key)
	return strings.TrimSpace(value), set
}

// MapEnvironment serves variables from a map; handy for tests and dry runs.
type MapEnvironment map[string]string

func (this MapEnvironment) LookupEnv(key string) (value string, set bool) {
	value, set = this[key]
	return strings.TrimSpace(value), set
}
