package extraction

import "fmt"

// BuildQuery deterministically concatenates a datapoint's title and
// disclosure reference into the retrieval query string, per spec §4.8
// step 1.
func BuildQuery(title, disclosureRef string) string {
	if disclosureRef == "" {
		return title
	}
	return fmt.Sprintf("%s %s", title, disclosureRef)
}
