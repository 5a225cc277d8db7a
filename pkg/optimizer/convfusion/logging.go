package convfusion

import (
	"github.com/mandelsoft/logging"
)

var REALM = logging.DefineRealm("fusion/convfusion", "conv activation fusion")

var log = logging.DynamicLogger(logging.DefaultContext(), REALM)
