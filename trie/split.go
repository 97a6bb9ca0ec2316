package trie

import "strings"

type SplitFunc func(string) (label, rest string)

// www.example.com -> ("com", "www.example")
func SplitTLD(domain string) (label, rest string) {
	domain = strings.TrimRight(domain, ".")

	idx := strings.LastIndexByte(domain, '.')
	if idx == -1 {
		return domain, ""
	}

	label = domain[idx+1:]
	rest = domain[:idx]

	return label, rest
}

// JoinTLD is the inverse of repeated SplitTLD calls: given labels in
// root-to-leaf order (outermost label first), it rebuilds the dotted
// name. SplitTLD drops trailing dots, so the result has none.
func JoinTLD(labels []string) string {
	if len(labels) == 0 {
		return ""
	}

	rev := make([]string, len(labels))
	for i, l := range labels {
		rev[len(labels)-1-i] = l
	}

	return strings.Join(rev, ".")
}
