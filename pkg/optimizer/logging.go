package optimizer

import (
	"github.com/mandelsoft/logging"
)

var REALM = logging.DefineRealm("fusion/optimizer", "graph optimizer")

var log = logging.DynamicLogger(logging.DefaultContext(), REALM)
