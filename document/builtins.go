package document

// Builtins are the interpreter-provided names that variable references may
// resolve to without a declaration. The list covers the built-in functions
// and variables a scope resolver must know about; anything missing merely
// surfaces as an unresolved reference, never as a wrong parse.
var Builtins = []string{
	// Built-in variables
	"a_ahkpath", "a_ahkversion", "a_appdata", "a_appdatacommon", "a_args",
	"a_clipboard", "a_computername", "a_comspec", "a_cursor", "a_dd",
	"a_desktop", "a_desktopcommon", "a_hour", "a_index", "a_iscompiled",
	"a_lasterror", "a_linefile", "a_linenumber", "a_loopfield",
	"a_loopfilename", "a_loopfilepath", "a_loopreadline", "a_loopregname",
	"a_min", "a_mm", "a_mon", "a_msec", "a_mydocuments", "a_now",
	"a_nowutc", "a_osversion", "a_programfiles", "a_screenheight",
	"a_screenwidth", "a_scriptdir", "a_scriptfullpath", "a_scriptname",
	"a_sec", "a_space", "a_tab", "a_temp", "a_thishotkey", "a_tickcount",
	"a_timeidle", "a_username", "a_windir", "a_workingdir", "a_yyyy",

	// Built-in functions
	"abs", "asin", "acos", "atan", "callbackcreate", "callbackfree",
	"ceil", "chr", "click", "clipwait", "cos", "dllcall", "exp",
	"fileappend", "filecopy", "filedelete", "fileexist", "fileopen",
	"fileread", "floor", "format", "getkeystate", "hasbase", "hasmethod",
	"hasprop", "hotkey", "hotstring", "inputbox", "instr", "integer",
	"isinteger", "isnumber", "isobject", "isset", "issetref", "ln", "log",
	"ltrim", "max", "min", "mod", "mouseclick", "mousemove", "msgbox",
	"number", "numget", "numput", "objbindmethod", "ord", "outputdebug",
	"random", "regexmatch", "regexreplace", "regread", "regwrite", "reload",
	"round", "rtrim", "send", "sendinput", "sendtext", "settimer", "sin",
	"sleep", "sqrt", "str", "strcompare", "strlen", "strlower", "strptr",
	"strreplace", "strsplit", "strupper", "substr", "tan", "tooltip",
	"traytip", "trim", "type", "varsetstrcapacity", "winactivate",
	"winclose", "winexist", "wingettitle", "winwait",

	// Built-in classes
	"any", "array", "buffer", "class", "error", "file", "float", "func",
	"gui", "indexerror", "keyerror", "map", "memberror", "methoderror",
	"object", "oserror", "propertyerror", "string", "targeterror",
	"typeerror", "valueerror", "zerodivisionerror",
}
