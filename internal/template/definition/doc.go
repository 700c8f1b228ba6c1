// Package definition holds parsed template definitions and the repository
// they are looked up in.
//
// A template source marks segments with $NAME$; $$ is a literal dollar:
//
//	for (int $I$ = 0; $I$ < $N$; $I$++) {
//	  $END$
//	}
//
// Building strips the markers, recording each segment's name and offset in
// the remaining text, and parses variable expressions against a function
// registry:
//
//	tpl, err := definition.New("fori", src).
//		Variable("I", "", `"i"`, true).
//		Variable("N", "", "", true).
//		Build(reg)
//
// A built Template is immutable and may be shared by any number of
// expansion sessions.
package definition
