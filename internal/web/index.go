package web

// Single-page dashboard: two symbol inputs, five tabbed views and the canned
// question sidebar. Served as one embedded document, no build step.
const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <title>stockpair</title>
  <script src="https://unpkg.com/lightweight-charts@4.1.3/dist/lightweight-charts.standalone.production.js"></script>
  <link rel="preconnect" href="https://fonts.googleapis.com">
  <link rel="preconnect" href="https://fonts.gstatic.com" crossorigin>
  <link href="https://fonts.googleapis.com/css2?family=Space+Mono:wght@400;700&display=swap" rel="stylesheet">
  <style>
    :root {
      --bg:#ffffff;
      --ink:#111111;
      --ink-mid:#4d4d4d;
      --ink-soft:#9c9c9c;
      --panel:#f6f6f6;
      --grid:rgba(0,0,0,0.1);
    }
    * { box-sizing:border-box; }
    body {
      margin:0;
      min-height:100vh;
      padding:2rem;
      background:var(--bg);
      color:var(--ink);
      font-family:'Space Mono','JetBrains Mono',monospace;
    }
    #app {
      max-width:1400px;
      margin:0 auto;
      background:var(--panel);
      border:3px solid var(--ink);
      padding:2rem;
      box-shadow:12px 12px 0 rgba(0,0,0,.15);
    }
    h1 { margin:0 0 1rem; font-size:1.4rem; letter-spacing:.08em; text-transform:uppercase; }
    .inputs { display:flex; gap:.75rem; flex-wrap:wrap; margin-bottom:1.5rem; }
    .inputs input {
      font:inherit; padding:.5rem .75rem; border:2px solid var(--ink);
      background:var(--bg); width:10rem; text-transform:uppercase;
    }
    button {
      font:inherit; padding:.5rem 1rem; border:2px solid var(--ink);
      background:var(--ink); color:var(--bg); cursor:pointer;
    }
    button:disabled { opacity:.5; cursor:wait; }
    button.ghost { background:var(--bg); color:var(--ink); }
    #error { color:#b00020; min-height:1.2rem; margin-bottom:1rem; }
    .tabs { display:flex; gap:.5rem; flex-wrap:wrap; margin-bottom:1rem; }
    .tabs button.active { background:var(--ink); color:var(--bg); }
    .tabs button { background:var(--bg); color:var(--ink); }
    .layout { display:flex; gap:1.5rem; align-items:flex-start; }
    .main { flex:1; min-width:0; }
    .sidebar { width:220px; display:flex; flex-direction:column; gap:.5rem; }
    .sidebar h3 { margin:.2rem 0; font-size:.8rem; color:var(--ink-mid); text-transform:uppercase; }
    .view { display:none; }
    .view.active { display:block; }
    .charts { display:flex; gap:1rem; flex-wrap:wrap; }
    .chartbox { flex:1; min-width:320px; border:2px solid var(--ink); background:var(--bg); padding:.5rem; }
    .chartbox .label { font-size:.8rem; color:var(--ink-mid); margin-bottom:.25rem; }
    .degraded { color:#b36b00; }
    table { border-collapse:collapse; width:100%; background:var(--bg); }
    th, td { border:1px solid var(--grid); padding:.45rem .6rem; text-align:left; font-size:.85rem; }
    th { background:var(--panel); }
    .newscols { display:flex; gap:1rem; flex-wrap:wrap; }
    .newscol { flex:1; min-width:300px; }
    .article { border:1px solid var(--grid); background:var(--bg); padding:.6rem; margin-bottom:.6rem; }
    .article .src { color:var(--ink-soft); font-size:.75rem; }
    #narrative, #chatlog { white-space:pre-wrap; background:var(--bg); border:2px solid var(--ink); padding:1rem; font-size:.85rem; }
    #chatlog { max-height:360px; overflow-y:auto; margin-bottom:.75rem; }
    .turn-user { color:var(--ink); font-weight:700; }
    .turn-assistant { color:var(--ink-mid); }
    .chatrow { display:flex; gap:.5rem; }
    .chatrow input { flex:1; font:inherit; padding:.5rem .75rem; border:2px solid var(--ink); background:var(--bg); }
    #feed { margin-top:1.5rem; font-size:.72rem; color:var(--ink-soft); }
  </style>
</head>
<body>
<div id="app">
  <h1>stockpair — AI stock comparison</h1>
  <div class="inputs">
    <input id="symA" placeholder="NVDA" value="NVDA" />
    <input id="symB" placeholder="MSFT" value="MSFT" />
    <button id="analyze">Analyze</button>
  </div>
  <div id="error"></div>
  <div class="layout">
    <div class="main">
      <div class="tabs">
        <button data-view="narrative" class="active">AI Analysis</button>
        <button data-view="charts">Charts</button>
        <button data-view="fundamentals">Fundamentals</button>
        <button data-view="news">News</button>
        <button data-view="chat">AI Chat</button>
      </div>
      <div id="view-narrative" class="view active"><div id="narrative">Enter two ticker symbols and press Analyze.</div></div>
      <div id="view-charts" class="view">
        <div class="charts">
          <div class="chartbox"><div class="label" id="chartlabel-a"></div><div id="chart-a" style="height:300px"></div></div>
          <div class="chartbox"><div class="label" id="chartlabel-b"></div><div id="chart-b" style="height:300px"></div></div>
        </div>
      </div>
      <div id="view-fundamentals" class="view"><table id="fstable"></table></div>
      <div id="view-news" class="view"><div class="newscols">
        <div class="newscol" id="news-a"></div>
        <div class="newscol" id="news-b"></div>
      </div></div>
      <div id="view-chat" class="view">
        <div id="chatlog"></div>
        <div class="chatrow">
          <input id="question" placeholder="Ask about the two companies..." />
          <button id="send">Send</button>
        </div>
      </div>
    </div>
    <div class="sidebar" id="sidebar">
      <h3>Quick prompts</h3>
    </div>
  </div>
  <div id="feed"></div>
</div>
<script>
const $ = (id) => document.getElementById(id);
let chartA = null, chartB = null;

document.querySelectorAll('.tabs button').forEach(btn => {
  btn.onclick = () => {
    document.querySelectorAll('.tabs button').forEach(b => b.classList.remove('active'));
    document.querySelectorAll('.view').forEach(v => v.classList.remove('active'));
    btn.classList.add('active');
    $('view-' + btn.dataset.view).classList.add('active');
    if (btn.dataset.view === 'news') loadNews();
  };
});

async function api(path, opts) {
  const resp = await fetch(path, opts);
  const data = await resp.json();
  if (!resp.ok) throw new Error(data.error || 'request failed');
  return data;
}

function renderChart(elID, labelID, series) {
  const el = $(elID);
  el.innerHTML = '';
  const label = $(labelID);
  if (!series || !series.points || series.points.length === 0) {
    label.textContent = (series && series.symbol ? series.symbol + ': ' : '') + 'no data available';
    return;
  }
  label.textContent = series.degraded
    ? series.symbol + ' — current quote only (no historical data)'
    : series.symbol + ' — last year, daily';
  label.className = series.degraded ? 'label degraded' : 'label';
  const chart = LightweightCharts.createChart(el, { height: 300, layout: { fontFamily: 'Space Mono' } });
  const candles = chart.addCandlestickSeries();
  candles.setData(series.points.map(p => ({
    time: p.time.slice(0, 10),
    open: p.open, high: p.high, low: p.low, close: p.close,
  })));
  chart.timeScale().fitContent();
  return chart;
}

function renderState(st) {
  $('sidebar').innerHTML = '<h3>Quick prompts</h3>';
  st.questions.forEach(q => {
    const b = document.createElement('button');
    b.className = 'ghost';
    b.textContent = q;
    b.onclick = () => sendQuestion(q);
    $('sidebar').appendChild(b);
  });
  if (!st.loaded) return;
  $('narrative').textContent = st.narrative;
  chartA = renderChart('chart-a', 'chartlabel-a', st.chart_a);
  chartB = renderChart('chart-b', 'chartlabel-b', st.chart_b);
  let html = '<tr><th>Metric</th><th>' + st.symbol_a + '</th><th>' + st.symbol_b + '</th></tr>';
  st.fundamentals.forEach(r => {
    html += '<tr><td>' + r.label + '</td><td>' + r.a + '</td><td>' + r.b + '</td></tr>';
  });
  $('fstable').innerHTML = html;
  renderTurns(st.turns);
}

function renderTurns(turns) {
  $('chatlog').innerHTML = (turns || []).map(t =>
    '<div class="turn-' + t.role + '">' + t.role + ': ' + escapeHTML(t.text) + '</div>'
  ).join('\n');
  $('chatlog').scrollTop = $('chatlog').scrollHeight;
}

function escapeHTML(s) {
  const div = document.createElement('div');
  div.textContent = s;
  return div.innerHTML;
}

async function loadNews() {
  for (const side of ['a', 'b']) {
    try {
      const data = await api('/api/news?side=' + side);
      $('news-' + side).innerHTML = '<h3>' + data.symbol + ' News</h3>' +
        (data.items.length === 0 ? '<div>No recent news found.</div>' :
          data.items.map(n =>
            '<div class="article"><b>' + escapeHTML(n.headline) + '</b>' +
            '<div class="src">' + escapeHTML(n.source) + ' — ' + n.time.slice(0, 10) + '</div>' +
            '<div>' + escapeHTML(n.summary) + '</div></div>'
          ).join(''));
    } catch (err) {
      $('news-' + side).innerHTML = '<div>' + escapeHTML(err.message) + '</div>';
    }
  }
}

$('analyze').onclick = async () => {
  $('error').textContent = '';
  $('analyze').disabled = true;
  $('narrative').textContent = 'Fetching data and generating analysis...';
  try {
    const st = await api('/api/analyze', {
      method: 'POST',
      headers: { 'Content-Type': 'application/json' },
      body: JSON.stringify({ symbol_a: $('symA').value, symbol_b: $('symB').value }),
    });
    renderState(st);
  } catch (err) {
    $('error').textContent = err.message;
    $('narrative').textContent = 'Enter two ticker symbols and press Analyze.';
  } finally {
    $('analyze').disabled = false;
  }
};

async function sendQuestion(q) {
  if (!q) return;
  $('error').textContent = '';
  document.querySelector('[data-view=chat]').click();
  try {
    const data = await api('/api/chat', {
      method: 'POST',
      headers: { 'Content-Type': 'application/json' },
      body: JSON.stringify({ question: q }),
    });
    renderTurns(data.turns);
  } catch (err) {
    $('error').textContent = err.message;
  }
}

$('send').onclick = () => { const q = $('question').value.trim(); $('question').value = ''; sendQuestion(q); };
$('question').addEventListener('keydown', e => { if (e.key === 'Enter') $('send').click(); });

const feed = new EventSource('/analyses/stream');
feed.addEventListener('analysis', e => {
  const ev = JSON.parse(e.data);
  $('feed').textContent = 'last analysis: ' + ev.symbol_a + ' vs ' + ev.symbol_b + ' @ ' + ev.timestamp;
});

api('/api/state').then(renderState).catch(() => {});
</script>
</body>
</html>`
