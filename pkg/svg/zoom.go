package svg

// ZoomScript wires wheel zoom and drag pan to every svg[data-zoom-min] in
// the document that has not been initialised yet. The current transform is
// mirrored into data-tx, data-ty and data-k on the viewport group.
//
// It defines window.mindgraphZoom so a host page can re-run it after
// inserting a new frame.
const ZoomScript = `
(function () {
  function init(root) {
    (root || document).querySelectorAll('svg[data-zoom-min]').forEach(function (svg) {
      if (svg.dataset.zoomReady) return;
      svg.dataset.zoomReady = '1';
      var g = svg.querySelector('g.viewport');
      if (!g) return;
      var min = parseFloat(svg.dataset.zoomMin), max = parseFloat(svg.dataset.zoomMax);
      var t = {x: parseFloat(g.dataset.tx) || 0, y: parseFloat(g.dataset.ty) || 0, k: parseFloat(g.dataset.k) || 1};
      function apply() {
        g.setAttribute('transform', 'translate(' + t.x + ',' + t.y + ') scale(' + t.k + ')');
        g.dataset.tx = t.x; g.dataset.ty = t.y; g.dataset.k = t.k;
      }
      function local(evt) {
        var p = svg.createSVGPoint(); p.x = evt.clientX; p.y = evt.clientY;
        return p.matrixTransform(svg.getScreenCTM().inverse());
      }
      svg.addEventListener('wheel', function (evt) {
        evt.preventDefault();
        var p = local(evt);
        var k = Math.max(min, Math.min(max, t.k * Math.pow(2, -evt.deltaY * 0.002)));
        t.x = p.x - (p.x - t.x) * k / t.k;
        t.y = p.y - (p.y - t.y) * k / t.k;
        t.k = k;
        apply();
      }, {passive: false});
      var drag = null;
      svg.addEventListener('mousedown', function (evt) {
        if (evt.button !== 0) return;
        var p = local(evt);
        drag = {x: p.x - t.x, y: p.y - t.y, moved: false};
      });
      window.addEventListener('mousemove', function (evt) {
        if (!drag) return;
        var p = local(evt);
        t.x = p.x - drag.x; t.y = p.y - drag.y; drag.moved = true;
        apply();
      });
      window.addEventListener('mouseup', function () {
        if (drag && drag.moved) svg.dataset.dragged = '1';
        drag = null;
      });
    });
  }
  window.mindgraphZoom = init;
  init(document);
})();
`
