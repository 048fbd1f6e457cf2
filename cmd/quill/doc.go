// Command quill transcribes journal audio recordings from a shared folder
// into their answer cells in a spreadsheet. It runs one pass at a time with
// `quill run` or on a cron schedule with `quill daemon`.
package main
