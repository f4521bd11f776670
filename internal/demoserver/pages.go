package demoserver

// PageVersion is one version of a page. A zero Status means 200.
type PageVersion struct {
	HTML        string
	ContentType string
	Status      int
	Headers     map[string]string
}

// PageDefinition holds all versions of a single page.
type PageDefinition struct {
	Path        string
	Description string
	Versions    map[int]PageVersion
}

// GetAllPages returns the agency fixture pages. Version 2 of the home page
// is a rebrand: new logo, new display font and a new phone number.
func GetAllPages() []PageDefinition {
	return []PageDefinition{
		{
			Path:        "/",
			Description: "Agency home page: header logo, Google Fonts, @font-face rules incl. an icon font, contact links",
			Versions: map[int]PageVersion{
				1: {HTML: homeV1},
				2: {HTML: homeV2},
			},
		},
		{
			Path:        "/about",
			Description: "No header logo; name from application-name, contacts only in text",
			Versions: map[int]PageVersion{
				1: {HTML: aboutV1},
			},
		},
		{
			Path:        "/late",
			Description: "Logo and stylesheet injected by script after load",
			Versions: map[int]PageVersion{
				1: {HTML: lateV1},
			},
		},
		{
			Path:        "/gone",
			Description: "Returns 404 for error-path demos",
			Versions: map[int]PageVersion{
				1: {HTML: goneV1, Status: 404},
			},
		},
	}
}

const homeV1 = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8">
    <title>Harbour Realty | Sydney Property Specialists</title>
    <meta property="og:site_name" content="Harbour Realty">
    <link rel="stylesheet" href="https://fonts.googleapis.com/css2?family=Inter:wght@400;700&display=swap">
    <link rel="stylesheet" href="/static/brand.css">
    <link rel="stylesheet" href="/static/icons.css">
</head>
<body>
    <header>
        <a class="logo" href="/"><img src="/static/logo.png" alt="Harbour Realty"></a>
        <nav><a href="/about">About</a> <a href="/late">Listings</a></nav>
    </header>
    <main>
        <h2>Find your place by the water</h2>
        <p><i class="fa fa-home"></i> 120 homes sold this year.</p>
        <img src="data:image/png;base64,iVBORw0KGgo=" class="logo-placeholder" alt="">
    </main>
    <footer>
        <a href="mailto:hello@harbour-realty.test?subject=Enquiry">hello@harbour-realty.test</a>
        <a href="tel:+61290001234">+61 2 9000 1234</a>
    </footer>
</body>
</html>`

const homeV2 = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8">
    <title>Harbour Realty Group</title>
    <meta property="og:site_name" content="Harbour Realty Group">
    <link rel="stylesheet" href="https://fonts.googleapis.com/css2?family=Montserrat:wght@600&display=swap">
    <link rel="stylesheet" href="/static/brand-v2.css">
    <link rel="stylesheet" href="/static/icons.css">
</head>
<body>
    <header>
        <div id="logo"><img src="/static/mark.svg" alt="Harbour Realty Group"></div>
    </header>
    <main><h2>New look, same harbour.</h2></main>
    <footer>
        <a href="mailto:hello@harbour-realty.test">Email</a>
        <a href="tel:+61 2 9000 5678">Call</a>
    </footer>
</body>
</html>`

const aboutV1 = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8">
    <title>About</title>
    <meta name="application-name" content="Harbour Properties Pty Ltd">
    <link rel="stylesheet" href="/static/brand.css">
</head>
<body>
    <main>
        <h1>About us</h1>
        <p>Family owned since 1998. Write to team@harbour-realty.test or call (02) 9000 1234.</p>
    </main>
</body>
</html>`

const lateV1 = `<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>Listings</title></head>
<body>
    <main id="app"></main>
    <script>
        setTimeout(function () {
            var link = document.createElement('link');
            link.rel = 'stylesheet';
            link.href = '/static/brand.css';
            document.head.appendChild(link);
            var header = document.createElement('header');
            header.innerHTML = '<img src="/static/logo.png" alt="Harbour Realty">';
            document.body.insertBefore(header, document.body.firstChild);
        }, 300);
    </script>
</body>
</html>`

const goneV1 = `<!DOCTYPE html><html><body><h1>Not found</h1></body></html>`
