package pptx

import (
	"fmt"
	"strings"
	"time"

	"slidesmith/app/internal/deck"
)

const xmlHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"

const (
	nsDrawing       = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsPresentation  = "http://schemas.openxmlformats.org/presentationml/2006/main"
	nsRelationships = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"

	// 16:9 slide surface in EMU.
	slideWidth  = 12192000
	slideHeight = 6858000
)

// escape replaces the characters that would break XML text content.
func escape(s string) string {
	replacer := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&apos;",
	)
	return replacer.Replace(s)
}

func contentTypesXML(slideCount int) string {
	var sb strings.Builder
	sb.WriteString(xmlHeader)
	sb.WriteString(`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">`)
	sb.WriteString(`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>`)
	sb.WriteString(`<Default Extension="xml" ContentType="application/xml"/>`)
	sb.WriteString(`<Override PartName="/ppt/presentation.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml"/>`)
	sb.WriteString(`<Override PartName="/ppt/slideMasters/slideMaster1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideMaster+xml"/>`)
	sb.WriteString(`<Override PartName="/ppt/slideLayouts/slideLayout1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideLayout+xml"/>`)
	sb.WriteString(`<Override PartName="/ppt/theme/theme1.xml" ContentType="application/vnd.openxmlformats-officedocument.theme+xml"/>`)
	for i := 1; i <= slideCount; i++ {
		fmt.Fprintf(&sb, `<Override PartName="/ppt/slides/slide%d.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slide+xml"/>`, i)
	}
	sb.WriteString(`<Override PartName="/docProps/core.xml" ContentType="application/vnd.openxmlformats-package.core-properties+xml"/>`)
	sb.WriteString(`<Override PartName="/docProps/app.xml" ContentType="application/vnd.openxmlformats-officedocument.extended-properties+xml"/>`)
	sb.WriteString(`</Types>`)
	return sb.String()
}

const rootRelsXML = xmlHeader +
	`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="ppt/presentation.xml"/>` +
	`<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties" Target="docProps/core.xml"/>` +
	`<Relationship Id="rId3" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/extended-properties" Target="docProps/app.xml"/>` +
	`</Relationships>`

func corePropsXML(title string) string {
	now := time.Now().UTC().Format(time.RFC3339)
	return xmlHeader + fmt.Sprintf(
		`<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">`+
			`<dc:title>%s</dc:title>`+
			`<dc:creator>slidesmith</dc:creator>`+
			`<cp:lastModifiedBy>slidesmith</cp:lastModifiedBy>`+
			`<dcterms:created xsi:type="dcterms:W3CDTF">%s</dcterms:created>`+
			`<dcterms:modified xsi:type="dcterms:W3CDTF">%s</dcterms:modified>`+
			`</cp:coreProperties>`,
		escape(title), now, now)
}

func appPropsXML(slideCount int) string {
	return xmlHeader + fmt.Sprintf(
		`<Properties xmlns="http://schemas.openxmlformats.org/officeDocument/2006/extended-properties" xmlns:vt="http://schemas.openxmlformats.org/officeDocument/2006/docPropsVTypes">`+
			`<Application>slidesmith</Application>`+
			`<Slides>%d</Slides>`+
			`</Properties>`,
		slideCount)
}

func presentationXML(slideCount int) string {
	var sb strings.Builder
	sb.WriteString(xmlHeader)
	fmt.Fprintf(&sb, `<p:presentation xmlns:a="%s" xmlns:r="%s" xmlns:p="%s">`, nsDrawing, nsRelationships, nsPresentation)
	sb.WriteString(`<p:sldMasterIdLst><p:sldMasterId id="2147483648" r:id="rId1"/></p:sldMasterIdLst>`)
	sb.WriteString(`<p:sldIdLst>`)
	for i := 1; i <= slideCount; i++ {
		fmt.Fprintf(&sb, `<p:sldId id="%d" r:id="rId%d"/>`, 255+i, i+1)
	}
	sb.WriteString(`</p:sldIdLst>`)
	fmt.Fprintf(&sb, `<p:sldSz cx="%d" cy="%d"/>`, slideWidth, slideHeight)
	sb.WriteString(`<p:notesSz cx="6858000" cy="9144000"/>`)
	sb.WriteString(`</p:presentation>`)
	return sb.String()
}

func presentationRelsXML(slideCount int) string {
	var sb strings.Builder
	sb.WriteString(xmlHeader)
	sb.WriteString(`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`)
	sb.WriteString(`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideMaster" Target="slideMasters/slideMaster1.xml"/>`)
	for i := 1; i <= slideCount; i++ {
		fmt.Fprintf(&sb, `<Relationship Id="rId%d" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide" Target="slides/slide%d.xml"/>`, i+1, i)
	}
	sb.WriteString(`</Relationships>`)
	return sb.String()
}

func slideMasterXML(theme Theme) string {
	return xmlHeader + fmt.Sprintf(
		`<p:sldMaster xmlns:a="%s" xmlns:r="%s" xmlns:p="%s">`+
			`<p:cSld>`+
			`<p:bg><p:bgPr><a:solidFill><a:srgbClr val="%s"/></a:solidFill><a:effectLst/></p:bgPr></p:bg>`+
			emptySpTree+
			`</p:cSld>`+
			`<p:clrMap bg1="lt1" tx1="dk1" bg2="lt2" tx2="dk2" accent1="accent1" accent2="accent2" accent3="accent3" accent4="accent4" accent5="accent5" accent6="accent6" hlink="hlink" folHlink="folHlink"/>`+
			`<p:sldLayoutIdLst><p:sldLayoutId id="2147483649" r:id="rId1"/></p:sldLayoutIdLst>`+
			`</p:sldMaster>`,
		nsDrawing, nsRelationships, nsPresentation, theme.Background)
}

const slideMasterRelsXML = xmlHeader +
	`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideLayout" Target="../slideLayouts/slideLayout1.xml"/>` +
	`<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/theme" Target="../theme/theme1.xml"/>` +
	`</Relationships>`

var slideLayoutXML = xmlHeader + fmt.Sprintf(
	`<p:sldLayout xmlns:a="%s" xmlns:r="%s" xmlns:p="%s" type="blank" preserve="1">`+
		`<p:cSld name="Blank">`+emptySpTree+`</p:cSld>`+
		`<p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr>`+
		`</p:sldLayout>`,
	nsDrawing, nsRelationships, nsPresentation)

const slideLayoutRelsXML = xmlHeader +
	`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideMaster" Target="../slideMasters/slideMaster1.xml"/>` +
	`</Relationships>`

const slideRelsXML = xmlHeader +
	`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideLayout" Target="../slideLayouts/slideLayout1.xml"/>` +
	`</Relationships>`

const emptySpTree = `<p:spTree>` +
	`<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr>` +
	`<p:grpSpPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="0" cy="0"/><a:chOff x="0" y="0"/><a:chExt cx="0" cy="0"/></a:xfrm></p:grpSpPr>` +
	`</p:spTree>`

func themeXML(theme Theme) string {
	return xmlHeader + fmt.Sprintf(
		`<a:theme xmlns:a="%s" name="slidesmith-%s">`+
			`<a:themeElements>`+
			`<a:clrScheme name="slidesmith">`+
			`<a:dk1><a:srgbClr val="%s"/></a:dk1>`+
			`<a:lt1><a:srgbClr val="%s"/></a:lt1>`+
			`<a:dk2><a:srgbClr val="%s"/></a:dk2>`+
			`<a:lt2><a:srgbClr val="F2F2F2"/></a:lt2>`+
			`<a:accent1><a:srgbClr val="%s"/></a:accent1>`+
			`<a:accent2><a:srgbClr val="%s"/></a:accent2>`+
			`<a:accent3><a:srgbClr val="A5A5A5"/></a:accent3>`+
			`<a:accent4><a:srgbClr val="FFC000"/></a:accent4>`+
			`<a:accent5><a:srgbClr val="4472C4"/></a:accent5>`+
			`<a:accent6><a:srgbClr val="70AD47"/></a:accent6>`+
			`<a:hlink><a:srgbClr val="0563C1"/></a:hlink>`+
			`<a:folHlink><a:srgbClr val="954F72"/></a:folHlink>`+
			`</a:clrScheme>`+
			`<a:fontScheme name="slidesmith">`+
			`<a:majorFont><a:latin typeface="%s"/><a:ea typeface=""/><a:cs typeface=""/></a:majorFont>`+
			`<a:minorFont><a:latin typeface="%s"/><a:ea typeface=""/><a:cs typeface=""/></a:minorFont>`+
			`</a:fontScheme>`+
			`<a:fmtScheme name="slidesmith">`+
			`<a:fillStyleLst>`+
			`<a:solidFill><a:schemeClr val="phClr"/></a:solidFill>`+
			`<a:solidFill><a:schemeClr val="phClr"/></a:solidFill>`+
			`<a:solidFill><a:schemeClr val="phClr"/></a:solidFill>`+
			`</a:fillStyleLst>`+
			`<a:lnStyleLst>`+
			`<a:ln w="6350"><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln>`+
			`<a:ln w="12700"><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln>`+
			`<a:ln w="19050"><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln>`+
			`</a:lnStyleLst>`+
			`<a:effectStyleLst>`+
			`<a:effectStyle><a:effectLst/></a:effectStyle>`+
			`<a:effectStyle><a:effectLst/></a:effectStyle>`+
			`<a:effectStyle><a:effectLst/></a:effectStyle>`+
			`</a:effectStyleLst>`+
			`<a:bgFillStyleLst>`+
			`<a:solidFill><a:schemeClr val="phClr"/></a:solidFill>`+
			`<a:solidFill><a:schemeClr val="phClr"/></a:solidFill>`+
			`<a:solidFill><a:schemeClr val="phClr"/></a:solidFill>`+
			`</a:bgFillStyleLst>`+
			`</a:fmtScheme>`+
			`</a:themeElements>`+
			`</a:theme>`,
		nsDrawing, theme.Name,
		theme.Body, theme.Background, theme.Primary,
		theme.Primary, theme.Accent,
		theme.TitleFont, theme.BodyFont)
}

func slideXML(slide deck.Slide, theme Theme) string {
	var sb strings.Builder
	sb.WriteString(xmlHeader)
	fmt.Fprintf(&sb, `<p:sld xmlns:a="%s" xmlns:r="%s" xmlns:p="%s">`, nsDrawing, nsRelationships, nsPresentation)
	sb.WriteString(`<p:cSld><p:spTree>`)
	sb.WriteString(`<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr>`)
	sb.WriteString(`<p:grpSpPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="0" cy="0"/><a:chOff x="0" y="0"/><a:chExt cx="0" cy="0"/></a:xfrm></p:grpSpPr>`)

	if slide.Kind == deck.KindTitle {
		writeTitleSlideShapes(&sb, slide, theme)
	} else {
		writeContentSlideShapes(&sb, slide, theme)
	}

	sb.WriteString(`</p:spTree></p:cSld>`)
	sb.WriteString(`<p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr>`)
	sb.WriteString(`</p:sld>`)
	return sb.String()
}

func writeTitleSlideShapes(sb *strings.Builder, slide deck.Slide, theme Theme) {
	writeTextShape(sb, textShape{
		id: 2, name: "Title",
		x: 914400, y: 2130425, w: 10363200, h: 1325563,
		align: "ctr", size: 4400, bold: true,
		color: theme.Primary, font: theme.TitleFont,
		lines: []string{slide.Title},
	})

	subtitle := slide.Subtitle
	if subtitle == "" {
		subtitle = "A Comprehensive Overview"
	}
	writeTextShape(sb, textShape{
		id: 3, name: "Subtitle",
		x: 914400, y: 3602038, w: 10363200, h: 685800,
		align: "ctr", size: 2400,
		color: theme.Accent, font: theme.BodyFont,
		lines: []string{subtitle},
	})
}

func writeContentSlideShapes(sb *strings.Builder, slide deck.Slide, theme Theme) {
	writeTextShape(sb, textShape{
		id: 2, name: "Title",
		x: 838200, y: 365125, w: 10515600, h: 939800,
		align: "l", size: 3200, bold: true,
		color: theme.Primary, font: theme.TitleFont,
		lines: []string{slide.Title},
	})

	if len(slide.Bullets) == 0 {
		return
	}

	writeTextShape(sb, textShape{
		id: 3, name: "Content",
		x: 838200, y: 1600200, w: 10515600, h: 4800600,
		align: "l", size: 1800,
		color: theme.Body, font: theme.BodyFont,
		lines:     slide.Bullets,
		bulleted:  true,
		bulletClr: theme.Accent,
	})
}

type textShape struct {
	id         int
	name       string
	x, y, w, h int
	align      string
	size       int // in hundredths of a point
	bold       bool
	color      string
	font       string
	lines      []string
	bulleted   bool
	bulletClr  string
}

func writeTextShape(sb *strings.Builder, shape textShape) {
	fmt.Fprintf(sb, `<p:sp><p:nvSpPr><p:cNvPr id="%d" name="%s"/><p:cNvSpPr><a:spLocks noGrp="1"/></p:cNvSpPr><p:nvPr/></p:nvSpPr>`, shape.id, shape.name)
	fmt.Fprintf(sb, `<p:spPr><a:xfrm><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/></a:xfrm><a:prstGeom prst="rect"><a:avLst/></a:prstGeom></p:spPr>`, shape.x, shape.y, shape.w, shape.h)
	sb.WriteString(`<p:txBody><a:bodyPr wrap="square"><a:normAutofit/></a:bodyPr><a:lstStyle/>`)

	bold := ""
	if shape.bold {
		bold = ` b="1"`
	}

	for _, line := range shape.lines {
		sb.WriteString(`<a:p><a:pPr`)
		fmt.Fprintf(sb, ` algn="%s"`, shape.align)
		sb.WriteString(`>`)
		if shape.bulleted {
			fmt.Fprintf(sb, `<a:buClr><a:srgbClr val="%s"/></a:buClr><a:buChar char="&#8226;"/>`, shape.bulletClr)
		} else {
			sb.WriteString(`<a:buNone/>`)
		}
		sb.WriteString(`</a:pPr>`)
		fmt.Fprintf(sb, `<a:r><a:rPr lang="en-US" sz="%d"%s dirty="0"><a:solidFill><a:srgbClr val="%s"/></a:solidFill><a:latin typeface="%s"/></a:rPr><a:t>%s</a:t></a:r>`,
			shape.size, bold, shape.color, escape(shape.font), escape(line))
		sb.WriteString(`</a:p>`)
	}

	sb.WriteString(`</p:txBody></p:sp>`)
}
