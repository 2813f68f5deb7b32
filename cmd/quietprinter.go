package cmd

import (
	"github.com/mikaelmello/echoping/core"
)

// registerQuiet registers only the header and the statistics of the printer, round trips are not printed
func registerQuiet(s *core.Session, p *printer) {
	s.AddOnStart(p.printOnStart)
	s.AddOnFinish(p.printOnEnd)
}
