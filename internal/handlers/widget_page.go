package handlers

import "html/template"

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Samarth Q&amp;A</title>
<style>
  body { font-family: system-ui, sans-serif; max-width: 720px; margin: 2rem auto; }
  #chat { height: 420px; overflow-y: auto; border: 1px solid #ccc; padding: .5rem; }
  .msg { margin: .25rem 0; padding: .4rem .6rem; border-radius: 6px; white-space: pre-wrap; }
  .msg.user { background: #e8f0fe; text-align: right; }
  .msg.bot { background: #f1f3f4; }
  .msg.error { background: #fce8e6; color: #a50e0e; }
  .chips button { margin: .25rem .25rem 0 0; }
</style>
</head>
<body>
<h1>Samarth Q&amp;A</h1>
<div id="chat">
{{.Transcript}}</div>
<form id="ask">
  <input id="input" name="message" autocomplete="off" placeholder="Ask about rainfall or crops" size="60">
  <button type="submit">Send</button>
</form>
<div class="chips">
{{range .Suggestions}}  <button type="button" data-q="{{.}}">{{.}}</button>
{{end}}</div>
<script>
(function () {
  var session = {{.SessionID}};
  var chat = document.getElementById("chat");
  var input = document.getElementById("input");

  function insert(html) {
    var tmp = document.createElement("div");
    tmp.innerHTML = html;
    var el = tmp.firstElementChild;
    if (!el || chat.querySelector('[data-seq="' + el.dataset.seq + '"]')) return;
    chat.appendChild(el);
  }

  function scrollToEnd() { chat.scrollTop = chat.scrollHeight; }

  var proto = location.protocol === "https:" ? "wss://" : "ws://";
  var ws = new WebSocket(proto + location.host + "/ws?session=" + encodeURIComponent(session));
  ws.onmessage = function (ev) {
    var msg = JSON.parse(ev.data);
    if (msg.type === "entry") insert(msg.payload.html);
    if (msg.type === "scroll") scrollToEnd();
  };

  function send(text) {
    var body = new URLSearchParams();
    body.set("message", text);
    input.value = "";
    fetch("/chat/messages", { method: "POST", body: body, credentials: "same-origin" })
      .then(function (res) { return res.status === 201 ? res.text() : ""; })
      .then(function (html) { if (html) { insert(html); scrollToEnd(); } });
  }

  document.getElementById("ask").addEventListener("submit", function (e) {
    e.preventDefault();
    send(input.value);
  });
  function fill(text) {
    input.value = text;
    input.focus();
  }

  document.querySelectorAll(".chips button").forEach(function (b) {
    b.addEventListener("click", function () { fill(b.dataset.q); });
  });
  scrollToEnd();
})();
</script>
</body>
</html>
`))
