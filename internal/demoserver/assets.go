package demoserver

import "encoding/base64"

type asset struct {
	contentType string
	body        []byte
}

// 1x1 transparent PNG.
var pngPixel, _ = base64.StdEncoding.DecodeString("iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mNkYAAAAAYAAjCB0C8AAAAASUVORK5CYII=")

var staticAssets = map[string]asset{
	"/static/logo.png": {"image/png", pngPixel},
	"/static/mark.svg": {"image/svg+xml", []byte(`<svg xmlns="http://www.w3.org/2000/svg" width="32" height="32"><circle cx="16" cy="16" r="14" fill="#0a4d68"/></svg>`)},
	"/static/brand.css": {"text/css", []byte(`@font-face {
  font-family: "Harbour Sans";
  src: url("fonts/harbour-sans.woff2") format("woff2"), url("fonts/harbour-sans.woff") format("woff");
  font-weight: 400;
}
@font-face {
  font-family: 'Harbour Sans';
  src: url(fonts/harbour-sans-bold.woff2) format("woff2");
  font-weight: 700;
}
@font-face {
  font-family: Harbour Serif;
  src: url(/static/fonts/harbour-serif.ttf) format("truetype");
}
body { font-family: "Harbour Sans", Inter, sans-serif; }
`)},
	"/static/brand-v2.css": {"text/css", []byte(`@import url("/static/legacy.css");
@font-face {
  font-family: "Harbour Display";
  src: url(fonts/harbour-display.otf);
}
@media (min-width: 600px) {
  @font-face {
    font-family: "Harbour Display Wide";
    src: url(fonts/harbour-display-wide.woff2) format("woff2");
  }
}
`)},
	"/static/legacy.css": {"text/css", []byte(`@font-face {
  font-family: "Harbour Sans";
  src: url(fonts/harbour-sans.woff) format("woff");
}
`)},
	"/static/icons.css": {"text/css", []byte(`@font-face {
  font-family: "Font Awesome 6 Free";
  src: url(fonts/fa-solid-900.woff2) format("woff2");
}
@font-face {
  font-family: "Material Icons";
  src: url(fonts/material-icons.woff2) format("woff2");
}
`)},
}

// fontStub is served for any /static/fonts/ path; browsers only need a
// response, the bytes are never parsed by the scraper.
var fontStub = []byte("wOF2")
