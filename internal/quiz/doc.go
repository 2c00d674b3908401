// Package quiz serves random question sets and grades submitted answers.
// Grading is stateless by design: the full question records are issued to
// the client as an opaque key and echoed back with the answers, so the
// server keeps no per-session state between the two requests.
package quiz
