package stategen

import "github.com/sirupsen/logrus"

// log is the package-scoped logger: a single WithField-derived entry
// reused across the package, tagged with this package's prefix.
var log = logrus.WithField("prefix", "stategen")
