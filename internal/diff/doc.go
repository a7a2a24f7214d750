// Package diff builds per-file line-validity indexes from unified diff
// text.
//
// Hosting platforms only accept inline review comments on lines that
// appear in the diff, on the side they appear on. The Index answers
// "can this line be commented on?" for either side and exposes the
// observed hunk boundaries so near-miss line references can be clamped
// onto real diff lines.
package diff
