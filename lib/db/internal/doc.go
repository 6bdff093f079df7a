// Package internal contains the binary record format shared by the write-ahead
// log and the table file of the db package.
package internal
