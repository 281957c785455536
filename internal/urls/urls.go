package urls

// JLinkDownload is the SEGGER J-Link Software and Documentation Pack
// download page, which includes the J-Link Commander.
const JLinkDownload = "https://www.segger.com/downloads/jlink/"

// JLinkCommander documents the commander command line and script
// commands (r, h, loadfile, g, Sleep, exit).
const JLinkCommander = "https://kb.segger.com/J-Link_Commander"

// MAX32657 is the device product page with the secure boot user guide.
const MAX32657 = "https://www.analog.com/en/products/max32657.html"
