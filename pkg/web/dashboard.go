package web

// dashboardHTML is the single-page dashboard. It leans on the REST API
// and the status websocket; no build step, no assets on disk.
const dashboardHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>JetBot</title>
<style>
  body { font-family: -apple-system, sans-serif; background: #111; color: #eee; margin: 0; padding: 16px; }
  h1 { font-size: 1.2rem; margin: 0 0 12px; }
  .row { display: flex; flex-wrap: wrap; gap: 16px; }
  .panel { background: #1c1c1e; border-radius: 8px; padding: 12px; }
  #feed { width: 480px; max-width: 100%; border-radius: 8px; background: #000; }
  #state { font-family: ui-monospace, monospace; font-size: 0.8rem; white-space: pre; }
  button { background: #2c2c2e; color: #eee; border: 1px solid #444; border-radius: 6px; padding: 8px 14px; cursor: pointer; }
  button:hover { background: #3a3a3c; }
  button.danger { border-color: #a33; }
  .gallery { display: flex; flex-wrap: wrap; gap: 6px; max-width: 480px; }
  .gallery img { width: 72px; height: 72px; object-fit: cover; border-radius: 4px; cursor: pointer; }
  .count { color: #8e8e93; }
  #message { color: #ffd60a; min-height: 1.2em; }
</style>
</head>
<body>
<h1>JetBot</h1>
<div id="message"></div>
<div class="row">
  <div class="panel">
    <img id="feed" src="/video_feed" alt="camera offline">
    <div>
      <button onclick="capture('left')">&#8592; Capture left</button>
      <button onclick="capture('right')">Capture right &#8594;</button>
      <button onclick="motion('motor-test')">Motor test</button>
      <button onclick="sync()">Sync photos</button>
      <button class="danger" onclick="shutdown()">Shutdown</button>
    </div>
  </div>
  <div class="panel">
    <h1>Status</h1>
    <div id="state">connecting...</div>
  </div>
</div>
<div class="row">
  <div class="panel">
    <h1>Left <span class="count" id="left-count"></span>
      <button class="danger" onclick="deleteAll('left')">Delete all</button></h1>
    <div class="gallery" id="left-gallery"></div>
  </div>
  <div class="panel">
    <h1>Right <span class="count" id="right-count"></span>
      <button class="danger" onclick="deleteAll('right')">Delete all</button></h1>
    <div class="gallery" id="right-gallery"></div>
  </div>
</div>
<script>
const msg = t => document.getElementById('message').textContent = t;

async function capture(side) {
  const r = await fetch('/api/capture/' + side, {method: 'POST'});
  const body = await r.json();
  msg(r.ok ? 'captured ' + body.name : body.error);
  if (r.ok) loadPhotos(side);
}

async function loadPhotos(side) {
  const r = await fetch('/api/photos/' + side);
  if (!r.ok) return;
  const body = await r.json();
  document.getElementById(side + '-count').textContent = '(' + body.count + ')';
  const gallery = document.getElementById(side + '-gallery');
  gallery.innerHTML = '';
  for (const p of body.photos) {
    const img = document.createElement('img');
    img.src = '/photos/' + side + '/' + p.name;
    img.title = p.name + ' (click to delete)';
    img.onclick = () => deletePhoto(side, p.name);
    gallery.appendChild(img);
  }
}

async function deletePhoto(side, name) {
  await fetch('/api/photos/' + side + '/' + name, {method: 'DELETE'});
  loadPhotos(side);
}

async function deleteAll(side) {
  if (!confirm('Delete every ' + side + ' photo?')) return;
  await fetch('/api/photos/' + side, {method: 'DELETE'});
  loadPhotos(side);
}

async function motion(name) {
  const r = await fetch('/api/motion/' + name, {method: 'POST'});
  const body = await r.json();
  msg(r.ok ? 'playing ' + name : body.error);
}

async function sync() {
  msg('syncing...');
  const r = await fetch('/api/sync', {method: 'POST'});
  const body = await r.json();
  msg(r.ok ? 'uploaded ' + body.uploaded + ' photos' : body.error);
}

async function shutdown() {
  if (!confirm('Shut down the robot?')) return;
  await fetch('/api/shutdown', {method: 'POST'});
  msg('shutting down');
}

function connectStatus() {
  const ws = new WebSocket((location.protocol === 'https:' ? 'wss://' : 'ws://') + location.host + '/ws/status');
  ws.onmessage = ev => {
    const s = JSON.parse(ev.data);
    document.getElementById('state').textContent = JSON.stringify(s, null, 2);
    if (s.message) msg(s.message);
  };
  ws.onclose = () => setTimeout(connectStatus, 2000);
}

connectStatus();
loadPhotos('left');
loadPhotos('right');
</script>
</body>
</html>
`
