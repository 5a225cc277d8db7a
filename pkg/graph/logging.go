package graph

import (
	"github.com/mandelsoft/logging"
)

var REALM = logging.DefineRealm("fusion/graph", "computation graph handling")

var log = logging.DynamicLogger(logging.DefaultContext(), REALM)
