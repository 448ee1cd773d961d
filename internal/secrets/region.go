package secrets

import "strings"

// regionByPrefix maps credential-table name prefixes to their home region.
// Tables are named <environment>-<purpose>, e.g. prod-credentials.
var regionByPrefix = map[string]string{
	"prod":    "us-east-1",
	"staging": "us-west-2",
}

// RegionForTable infers the AWS region from the part of the table name
// before the first '-'. Unknown prefixes return "" and the caller passes
// the empty region through to the store unchanged.
func RegionForTable(table string) string {
	prefix, _, _ := strings.Cut(table, "-")
	return regionByPrefix[prefix]
}
