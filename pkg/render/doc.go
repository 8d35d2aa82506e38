// Package render turns activated templates into output values. Renderer is
// generic over the template type it accepts and the result it produces; the
// built-in variants accept any template.Template and produce strings.
package render
