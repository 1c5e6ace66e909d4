package ui

const layoutTemplates = `
{{define "page"}}<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Crewboard · {{.Title}}</title>
<script type="module" src="https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0-RC.5/bundles/datastar.js"></script>
<style>
body{font-family:system-ui,sans-serif;margin:0;background:#f4f6f8;color:#1f2933}
header{display:flex;align-items:center;gap:16px;padding:12px 24px;background:#fff;box-shadow:0 1px 3px rgba(0,0,0,.08)}
header .user{margin-left:auto;font-size:13px;color:#616e7c}
main{max-width:1100px;margin:24px auto;padding:0 16px}
.select-menu{position:relative;min-width:160px}
.selected-item{display:flex;justify-content:space-between;cursor:pointer;padding:6px 10px;border:1px solid #cbd2d9;border-radius:4px}
.options-list{position:absolute;top:100%;left:0;right:0;background:#fff;box-shadow:0 4px 12px rgba(0,0,0,.12);z-index:10}
.option{padding:6px 10px;cursor:pointer}
.option:hover{background:#f0f4f8}
.capitalize{text-transform:capitalize}
.flash{padding:8px 12px;border-radius:4px;margin-bottom:12px}
.flash-info{background:#e3f8ff}
.flash-error{background:#ffe3e3}
.custom-table{width:100%;border-collapse:collapse;background:#fff}
.custom-table td{padding:10px 12px;border-bottom:1px solid #e4e7eb}
.row-head td{font-weight:600;color:#616e7c}
.captain-icon{margin-left:8px;font-size:10px;padding:2px 6px;border-radius:3px;background:#102a43;color:#fff}
.risk-icon{display:inline-block;width:12px;height:12px;border-radius:50%;margin-left:8px}
mark.highlighted{background:#fff3c4;padding:0}
.items-amount{font-weight:600;margin:12px 0}
.pagination{display:flex;gap:4px;margin:16px 0}
.pagination button{border:1px solid #cbd2d9;background:#fff;border-radius:4px;padding:4px 10px;cursor:pointer}
.pagination button.current{background:#102a43;color:#fff}
.loading-panel,.empty-state,.error-panel{padding:24px;text-align:center;background:#fff}
.error-panel{color:#a61b1b}
.filter-panel{display:flex;gap:16px;flex-wrap:wrap}
.filter-panel fieldset{border:1px solid #e4e7eb;border-radius:4px}
</style>
</head>
<body>
<header>
{{template "selector" .Selector}}
<span class="user">{{.Email}}</span>
<form method="post" action="/logout"><button type="submit">Log out</button></form>
</header>
<main>
<div id="flash"></div>
{{.Body}}
</main>
</body>
</html>{{end}}

{{define "selector"}}<div id="category-selector" class="select-menu">
<div class="selected-item" data-on-click="@post('/nav/toggle')">
<div class="capitalize">{{.Selected}}</div>
<div>&#11206;</div>
</div>
{{if .ShowOptionsList}}<div class="options-list">
{{range .Options}}<div class="option" data-on-click="@post('/nav/select/{{.}}')">{{.}}</div>
{{end}}</div>{{end}}
</div>{{end}}

{{define "flash"}}<div id="flash" class="flash flash-{{.Kind}}">{{.Message}}</div>{{end}}

{{define "login"}}<!doctype html>
<html lang="en">
<head><meta charset="utf-8"><title>Crewboard · Sign in</title></head>
<body>
<main style="max-width:360px;margin:80px auto;font-family:system-ui,sans-serif">
<h1>Crewboard</h1>
{{if .}}<div class="flash flash-error">{{.}}</div>{{end}}
<form method="post" action="/login">
<p><label>Email<br><input type="email" name="email" required></label></p>
<p><label>Password<br><input type="password" name="password" required></label></p>
<button type="submit">Sign in</button>
</form>
</main>
</body>
</html>{{end}}
`

const crewTemplates = `
{{define "crew"}}<section id="crew" data-signals="{{.Signals}}">
<div class="search-panel">
<input type="search" placeholder="Search crew by name or license" value="{{.State.Query}}"
 data-bind="crewQuery" data-indicator="crewLoading" data-on-input__debounce.300ms="@post('/crew/search')">
</div>
{{template "filters" .Filters}}
{{template "crewResults" .State}}
</section>{{end}}

{{define "filters"}}<form class="filter-panel" data-indicator="crewLoading" data-on-change="@post('/crew/filter')" onsubmit="return false">
{{range .Groups}}<fieldset>
<legend>{{.Label}}</legend>
{{range .Fields}}<label title="{{if .PartTitle}}{{.PartTitle}}{{else}}{{.Title}}{{end}}">
{{if eq .Kind "risk"}}<input type="checkbox" data-bind="crewFilter.{{signalKey .Name}}"> {{.Title}}
{{else if eq .Kind "date"}}{{.Title}} <input type="date" data-bind="crewFilter.{{signalKey .Name}}">
{{else if eq .Kind "time"}}{{.Title}} <input type="time" data-bind="crewFilter.{{signalKey .Name}}">
{{else}}{{.Title}} <input type="text" data-bind="crewFilter.{{signalKey .Name}}">
{{end}}</label>
{{end}}</fieldset>
{{end}}</form>{{end}}

{{define "crewResults"}}<div id="crew-results">
{{if .Loading}}<div class="items-amount">Loading...</div>
<div class="loading-panel">Loading...</div>
{{else}}<div class="items-amount"><span data-show="!$crewLoading">{{.Total}} Crew Members</span><span data-show="$crewLoading" style="display:none">Loading...</span></div>
<div class="loading-panel" data-show="$crewLoading" style="display:none">Loading...</div>
<div class="crew-body" data-show="!$crewLoading">
{{if .Err}}<div class="error-panel">Could not load crew members.
<button type="button" data-indicator="crewLoading" data-on-click="@post('/crew/retry')">Retry</button></div>{{end}}
{{if .Rows}}<div class="table-wrapper">
<table class="custom-table">
<thead><tr class="table-row row-head">
<td>Name</td><td>License number</td><td>Vessel</td><td>Violations</td><td>Last boarded</td>
</tr></thead>
<tbody>
{{range .Rows}}<tr class="table-row row-body">
<td><span class="crew-name">{{highlight .Name $.Highlighted}}</span>{{if isCaptain .Rank}}<span class="captain-icon">CAPTAIN</span>{{end}}</td>
<td>{{.License}}</td>
<td>{{.Vessel}}</td>
<td>{{if .Violations}}{{.Violations}}{{else}}No violations{{end}}</td>
<td><span class="delivery-date">{{formatDate .Date}}</span><span class="risk-icon" style="{{riskStyle .SafetyLevel}}" title="{{.SafetyLevel.Level}}"></span></td>
</tr>
{{end}}</tbody>
</table>
</div>
{{if .ShowPagination}}<nav class="pagination">
{{range pageItems .Page .PageCount}}{{if .Gap}}<span>…</span>{{else}}<button type="button"{{if .Current}} class="current"{{end}} data-indicator="crewLoading" data-on-click="@post('/crew/page/{{.Number}}')">{{.Number}}</button>{{end}}
{{end}}</nav>{{end}}
{{else if not .Err}}<div class="empty-state">No crew members found</div>
{{end}}</div>
{{end}}</div>{{end}}
`

const listTemplates = `
{{define "home"}}<section id="home">
<h2>Overview</h2>
<table class="custom-table">
<tr class="table-row"><td>Boardings</td><td>{{.Boardings}}</td></tr>
<tr class="table-row"><td>Users</td><td>{{.Users}}</td></tr>
</table>
</section>{{end}}

{{define "boardings"}}<section id="boardings">
<div class="items-amount">{{len .}} Boardings</div>
{{if .}}<table class="custom-table">
<thead><tr class="table-row row-head">
<td>Date</td><td>Vessel</td><td>Permit</td><td>Location</td><td>Captain</td><td>Crew</td><td>Violations</td><td>Risk</td>
</tr></thead>
<tbody>
{{range .}}<tr class="table-row row-body">
<td>{{formatDate .BoardedAt}}</td>
<td>{{.Vessel.Name}}</td>
<td>{{.Vessel.PermitNumber}}</td>
<td>{{.Location}}</td>
<td>{{.Captain.Name}}</td>
<td>{{len .Crew}}</td>
<td>{{if .Violations}}{{.Violations}}{{else}}No violations{{end}}</td>
<td><span class="risk-icon" style="{{riskStyle .SafetyLevel}}" title="{{.SafetyLevel.Level}}"></span></td>
</tr>
{{end}}</tbody>
</table>
{{else}}<div class="empty-state">No boardings found</div>{{end}}
</section>{{end}}

{{define "users"}}<section id="users">
<div class="items-amount">{{len .}} Users</div>
<table class="custom-table">
<thead><tr class="table-row row-head"><td>ID</td><td>Email</td><td>Created</td></tr></thead>
<tbody>
{{range .}}<tr class="table-row row-body"><td>{{.ID}}</td><td>{{.Email}}</td><td>{{formatDate .CreatedAt}}</td></tr>
{{end}}</tbody>
</table>
</section>{{end}}

{{define "category"}}<section id="category">
<h2>{{.}}</h2>
<div class="empty-state">Nothing to show for {{.}} yet.</div>
</section>{{end}}
`
