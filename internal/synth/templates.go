package synth

import "fmt"

// DefaultIndexHTML builds a minimal self-contained page that echoes the brief
// and task label and makes no external calls.
func DefaultIndexHTML(brief, task string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8"/>
  <meta name="viewport" content="width=device-width,initial-scale=1"/>
  <title>%s - Demo</title>
  <style>
    body{font-family:sans-serif;padding:2rem;max-width:800px;margin:auto;}
    h1{color:#333;}
    #brief{margin-top:1rem;color:#555;}
    #status{color:green;font-weight:bold;margin-top:1rem;}
  </style>
</head>
<body>
  <h1>%s</h1>
  <p id="brief">%s</p>
  <div id="status">Generated demo page. Replace with a full implementation.</div>
  <script>
    const params=new URLSearchParams(window.location.search);
    const input=params.get("q");
    if(input){document.getElementById("brief").textContent="Input: "+input;}
  </script>
</body>
</html>`, task, task, brief)
}

// DefaultReadme builds the fallback README for a task.
func DefaultReadme(brief, task string) string {
	return fmt.Sprintf("# %s\n\nAuto-generated demo page.\n\nBrief: %s\n", task, brief)
}
