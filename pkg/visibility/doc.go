// Package visibility computes which parts of a mind map are hidden when a
// subtree is folded and which become visible again when it is expanded.
//
// The two operations are deliberately asymmetric:
//
//   - [Fold] walks every node reachable from the root through outgoing edges
//     and hides all of them (except the root) together with every edge
//     leaving a visited node.
//   - [Expand] reveals only the root's direct children and the edges from the
//     root to them. Deeper descendants keep whatever state they had.
//
// Hidden elements stay in the graph; only their Hidden flag changes.
//
// # Cycles
//
// [Descendants] keeps a visited set so cyclic graphs terminate. When a back
// edge leads to the root or to one of its ancestors, those nodes appear in
// the walk. Fold never hides the root itself, but ancestors reachable through
// a cycle are hidden along with the rest of the walk.
package visibility
