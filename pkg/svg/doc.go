// Package svg holds the small helpers shared by the mind map and logic
// diagram renderers: XML escaping, compact number formatting, the viewport
// transform and the inline pan/zoom script.
//
// Both renderers write SVG by hand into a bytes.Buffer. Every interactive
// document has the same skeleton:
//
//	<svg data-zoom-min="0.1" data-zoom-max="4">
//	  <g class="viewport" transform="translate(120,20) scale(1)"
//	     data-tx="120" data-ty="20" data-k="1"> ... </g>
//	  <script>...</script>
//	</svg>
//
// The script reads the data attributes, so a page that swaps one frame for
// the next can carry the user's pan and zoom over by copying them.
package svg
