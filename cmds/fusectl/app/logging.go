package app

import (
	"fmt"

	"github.com/mandelsoft/logging"
)

var REALM = logging.DefineRealm("fusion/cli", "fusion command line tool")

var log = logging.DynamicLogger(logging.DefaultContext(), REALM)

// ConfigureLogging enables the given log level for all fusion realms.
func ConfigureLogging(level string) error {
	if level == "" {
		return nil
	}
	l, err := logging.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q", level)
	}
	logging.DefaultContext().AddRule(logging.NewConditionRule(l, logging.NewRealmPrefix("fusion")))
	return nil
}
