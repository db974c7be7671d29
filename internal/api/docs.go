package api

// docsHTML renders the OpenAPI reference with a status bar showing whether
// the browser extension is connected.
const docsHTML = `<!doctype html>
<html lang="en" data-theme="dark">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>tabkeeper API</title>
  <link href="https://unpkg.com/@stoplight/elements@9.0.0/styles.min.css" rel="stylesheet" />
  <script src="https://unpkg.com/@stoplight/elements@9.0.0/web-components.min.js" crossorigin="anonymous"></script>
  <style>
    body { height: 100vh; margin: 0; display: flex; flex-direction: column; background: #0d1117; }
    #status { display: flex; gap: 16px; align-items: center; padding: 6px 16px;
      font: 12px -apple-system, BlinkMacSystemFont, 'Segoe UI', sans-serif;
      color: #c9d1d9; border-bottom: 1px solid #30363d; }
    #status a { color: #58a6ff; text-decoration: none; margin-left: auto; }
    .dot { width: 8px; height: 8px; border-radius: 50%; background: #6e7681; display: inline-block; }
    .dot.up { background: #3fb950; }
    .dot.down { background: #f85149; }
    elements-api { flex: 1; min-height: 0; }
  </style>
</head>
<body>
  <div id="status">
    <span><span id="dot" class="dot"></span> <span id="host">host: ?</span></span>
    <span id="tasks"></span>
    <a href="/api/v1/events">Live activity feed</a>
  </div>
  <elements-api
    apiDescriptionUrl="/openapi.json"
    router="hash"
    layout="sidebar"
    tryItCredentialsPolicy="same-origin"
  />
  <script>
    async function refresh() {
      try {
        const h = await (await fetch("/api/v1/health")).json();
        document.getElementById("dot").className = "dot " + (h.connected ? "up" : "down");
        document.getElementById("host").textContent = "host: " + h.host + (h.connected ? "" : " (disconnected)");
        document.getElementById("tasks").textContent = h.in_flight + " in flight, " + h.handled + " handled";
      } catch (e) {
        document.getElementById("dot").className = "dot down";
      }
    }
    refresh();
    setInterval(refresh, 5000);
  </script>
</body>
</html>`
