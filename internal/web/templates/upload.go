package templates

import (
	"strconv"

	"github.com/a-h/templ"
)

const uploadScript = `
(function () {
  var zone = document.getElementById('dropzone');
  var input = document.getElementById('file');
  var bar = document.getElementById('progress');
  var status = document.getElementById('status');
  var errBox = document.getElementById('upload-error');
  var maxSize = Number(zone.dataset.maxSize);
  var busy = false;

  function fail(msg) {
    busy = false;
    zone.classList.remove('active');
    bar.hidden = true;
    status.textContent = '';
    errBox.textContent = msg;
    errBox.hidden = false;
  }

  function start(files) {
    if (busy) return;
    errBox.hidden = true;
    if (files.length === 0) return fail('No file was selected');
    if (files.length > 1) return fail('Only one file can be uploaded at a time');
    var f = files[0];
    if (f.size > maxSize) return fail(zone.dataset.sizeMessage);
    if (!/\.(csv|xlsx?)$/i.test(f.name)) return fail('File type must be CSV, XLS, or XLSX');

    busy = true;
    bar.hidden = false;
    bar.value = 0;
    status.textContent = 'Uploading ' + f.name + '...';

    var body = new FormData();
    body.append('file', f);
    fetch('/api/upload', { method: 'POST', body: body, headers: { 'Accept': 'application/json' } })
      .then(function (res) {
        return res.json().then(function (data) {
          if (!res.ok) throw new Error(data.message || data.error || 'Upload failed');
          return data;
        });
      })
      .then(function (data) { follow(data.upload_id); })
      .catch(function (e) { fail(e.message || 'No response from server'); });
  }

  function follow(id) {
    var es = new EventSource('/api/upload/' + encodeURIComponent(id) + '/progress');
    es.addEventListener('progress', function (e) {
      var p = JSON.parse(e.data);
      bar.value = p.percent;
      status.textContent = 'Uploading ' + p.file_name + ': ' + p.percent + '%';
    });
    es.addEventListener('complete', function (e) {
      es.close();
      var p = JSON.parse(e.data);
      status.textContent = 'Upload complete';
      window.location.href = p.redirect;
    });
    es.addEventListener('failed', function (e) {
      es.close();
      var p = JSON.parse(e.data);
      fail(p.error + (p.code ? ' (Code: ' + p.code + ')' : ''));
    });
    es.onerror = function () {
      if (es.readyState === EventSource.CLOSED && busy) fail('No response from server');
    };
  }

  zone.addEventListener('click', function () { if (!busy) input.click(); });
  input.addEventListener('change', function () { start(input.files); input.value = ''; });
  zone.addEventListener('dragover', function (e) { e.preventDefault(); if (!busy) zone.classList.add('active'); });
  zone.addEventListener('dragleave', function () { zone.classList.remove('active'); });
  zone.addEventListener('drop', function (e) {
    e.preventDefault();
    zone.classList.remove('active');
    start(e.dataTransfer.files);
  });
})();
`

// UploadPage is the drag-and-drop upload page. sizeMessage is shown for
// files over maxSize bytes.
func UploadPage(maxSize int64, sizeMessage string) templ.Component {
	return component(func(h *html) {
		h.raw(`<div class="card"><h1>Upload a dataset</h1>`,
			`<div id="dropzone" data-max-size="`, strconv.FormatInt(maxSize, 10), `" data-size-message="`)
		h.text(sizeMessage)
		h.raw(`"><p><strong>Drop a file here</strong> or click to choose one</p>`,
			`<p class="muted">CSV, XLS or XLSX, one file at a time</p>`,
			`<input id="file" type="file" name="file" accept=".csv,.xls,.xlsx" hidden></div>`,
			`<progress id="progress" max="100" value="0" hidden></progress>`,
			`<p id="status" class="muted" aria-live="polite"></p>`,
			`<div id="upload-error" class="error" role="alert" hidden></div>`,
			`</div><script>`, uploadScript, `</script>`)
	})
}
