// Package cs2 reads and writes the CS2 plain-text configuration format used
// by Märklin Central Station devices to persist locomotive and system
// records (lokomotive.cs2, lokstat.cs2 and friends).
//
// The package is split into two halves. [Parse] and [Render] convert between
// text and an untyped, order-preserving tree of [Node] values. [Decode] and
// [Encode] bridge between that tree and caller-defined Go types, driven by a
// [Schema] that describes field names, renames, skip-if-empty behaviour and
// per-field encodings (plain text, strict or compact hexadecimal, fixed-size
// byte blocks). [Unmarshal] and [Marshal] combine both halves, deriving the
// Schema from struct tags similar to [encoding/json].
package cs2
