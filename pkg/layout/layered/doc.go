// Package layered assigns positions to the nodes of a directed graph drawn
// top to bottom in ranks.
//
// A [Layouter] takes a [Graph] (nodes, edges, a fixed node footprint and
// spacing) and returns a [Result]: a center and rank per node, a route of
// waypoints per edge, and the bounding box. Two implementations exist:
//
//   - [Graphviz] runs the dot engine in-process through goccy/go-graphviz
//     and reads its "plain" output. Edge routes are cubic Bézier control
//     points (Spline is true).
//   - [Sugiyama] is a small pure-Go layered layout: cycle breaking by DFS,
//     longest-path ranking, barycenter ordering sweeps and polyline routes
//     through one waypoint per crossed rank.
//
// [Fallback] tries one layouter and falls back to the other on error.
//
// All coordinates are in pixels with the origin at the top-left corner of
// the bounding box and y growing downward.
package layered
