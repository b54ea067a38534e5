package entity

// ClientListingHeaderRows is the number of non-data rows the admin tool
// prints at the top of every client listing. The tool does not mark the row
// in any way, so a format change would silently skew the connected count.
const ClientListingHeaderRows = 1

// ClientSession is one raw row of the client listing.
type ClientSession struct {
	Raw string
}

// ConnectedClients returns the number of sessions in a raw listing after the
// header row is discounted. It is negative for an empty listing.
func ConnectedClients(rows []ClientSession) int {
	return len(rows) - ClientListingHeaderRows
}

// OpenResource is a hosted resource (database file) reported by the admin tool.
type OpenResource struct {
	Identifier string
	IsOpen     bool
}

// CountOpen returns how many of resources are open.
func CountOpen(resources []OpenResource) int {
	n := 0
	for _, r := range resources {
		if r.IsOpen {
			n++
		}
	}
	return n
}
