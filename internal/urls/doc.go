// Package urls holds the documentation links printed in troubleshooting
// tips, so they can be updated in one place.
//
// Usage:
//
//	import "github.com/muurk/bl1prov/internal/urls"
//
//	fmt.Printf("Install the J-Link Software Pack: %s\n", urls.JLinkDownload)
package urls
