// Package archive implements the bidirectional binary codec used by the
// module format.
//
// An Archive is either a Reader or a Writer. Serializers are written once
// against the interface and work in both directions:
//
//	func transcodePoint(a archive.Archive, p *Point) error {
//		if err := a.Int32(&p.X); err != nil {
//			return err
//		}
//		return a.Int32(&p.Y)
//	}
//
// Fixed-width values use the byte order chosen at construction. Lengths and
// indices use a variable-length signed integer encoding (VLE). Strings,
// byte blobs and slices are VLE length prefixed.
//
// Closed enumerations go through Enum, which rejects any tag past the last
// variant. Optional values go through Optional or Presence, which enforce
// whether a value is required. Decode failures are reported as
// *errors.Error values wrapped in a *ParseError naming the section and byte
// position.
package archive
