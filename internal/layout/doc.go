// Package layout provides the storage backings behind dataset variables.
//
// Variable data is addressed along its leading axis: a backing knows how
// many leading-axis rows it has (OuterLen), how many elements each row
// carries (BlockLen), and how to materialize row ranges as flat row-major
// slices. Everything above this package composes backings instead of
// copying data, so a multi-file variable stays unread until a caller asks
// for values.
//
// # Backings
//
//   - [Memory]: a materialized flat slice. Reads return windows of the
//     held slice without copying.
//
//   - [File]: rows served by a backend variable getter. Reads are issued
//     in chunk-size steps along the leading axis, so one backing read maps
//     to one or more backend GetSlice calls.
//
//   - [Concat]: an ordered sequence of backings glued along the leading
//     axis. Reads stitch across section boundaries and only touch the
//     sections a range overlaps.
//
//   - [Selection]: an arbitrary leading-axis index list over another
//     backing. Consecutive indices are coalesced into ranged reads.
//
// Read always equals the concatenation of ReadOuter windows; the tests
// hold every backing to that property.
package layout
